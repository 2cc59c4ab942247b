package handler

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"travelthreads/internal/httputil"
	"travelthreads/internal/model"
	"travelthreads/internal/service"
	"travelthreads/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
	userService  *service.UserService
}

func NewMediaHandler(mediaService *service.MediaService, userService *service.UserService) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		userService:  userService,
	}
}

// UploadAvatar handles POST /media/avatar
// Uploads the avatar, points the profile at it and removes the previous
// object best-effort.
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	file, header, ok := h.formFile(w, r, "avatar", model.MaxAvatarSize)
	if !ok {
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadAvatar(r.Context(), file, header)
	if err != nil {
		h.writeUploadError(w, err, "avatar")
		return
	}

	oldKey, err := h.userService.UpdateAvatar(r.Context(), userID, upload.URL, upload.Key)
	if err != nil {
		log.Printf("[ERROR] UploadAvatar handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to update avatar")
		return
	}

	if oldKey != nil && *oldKey != upload.Key {
		if err := h.mediaService.DeleteObject(r.Context(), *oldKey); err != nil {
			log.Printf("[WARN] UploadAvatar handler: delete old avatar key=%s err=%v", *oldKey, err)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, upload)
}

// UploadPostImage handles POST /media/posts
// The returned URL is passed back as image_url when creating a post.
func (h *MediaHandler) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	h.uploadOriginal(w, r, h.mediaService.UploadPostImage)
}

// UploadMessageImage handles POST /media/messages
func (h *MediaHandler) UploadMessageImage(w http.ResponseWriter, r *http.Request) {
	h.uploadOriginal(w, r, h.mediaService.UploadMessageImage)
}

func (h *MediaHandler) uploadOriginal(
	w http.ResponseWriter,
	r *http.Request,
	upload func(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error),
) {
	_, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	file, header, ok := h.formFile(w, r, "image", model.MaxImageSizeBytes)
	if !ok {
		return
	}
	defer file.Close()

	result, err := upload(r.Context(), file, header)
	if err != nil {
		h.writeUploadError(w, err, "image")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}

// formFile parses the multipart form and returns the named file. Writes the
// error response itself when parsing fails.
func (h *MediaHandler) formFile(w http.ResponseWriter, r *http.Request, field string, maxSize int64) (multipart.File, *multipart.FileHeader, bool) {
	maxFormSize := maxSize + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return nil, nil, false
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "File exceeds the size limit")
			return nil, nil, false
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		httputil.WriteBadRequest(w, "File field '"+field+"' is required")
		return nil, nil, false
	}
	return file, header, true
}

func (h *MediaHandler) writeUploadError(w http.ResponseWriter, err error, kind string) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "File exceeds the size limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	default:
		log.Printf("[ERROR] Upload %s: %v", kind, err)
		httputil.WriteInternalError(w, "Failed to upload file")
	}
}
