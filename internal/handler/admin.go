package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"travelthreads/internal/httputil"
	"travelthreads/internal/model"
	"travelthreads/internal/service"
	"travelthreads/internal/transport/http/middleware"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

type blockUserRequest struct {
	Reason *string `json:"reason"`
}

// BlockUser handles POST /admin/users/{id}/block
func (h *AdminHandler) BlockUser(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	var req blockUserRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteBadRequest(w, "Invalid request body")
			return
		}
	}

	err = h.adminService.BlockUser(r.Context(), adminID, targetID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCannotModerateSelf):
			httputil.WriteBadRequest(w, "Cannot block your own account")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] BlockUser handler: admin=%d target=%d err=%v", adminID, targetID, err)
			httputil.WriteInternalError(w, "Failed to block user")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "User blocked",
	})
}

// UnblockUser handles DELETE /admin/users/{id}/block
func (h *AdminHandler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	h.moderationAction(w, r, h.adminService.UnblockUser, "User unblocked")
}

// GrantAdmin handles POST /admin/users/{id}/admin
func (h *AdminHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	h.moderationAction(w, r, h.adminService.GrantAdmin, "Admin granted")
}

// RevokeAdmin handles DELETE /admin/users/{id}/admin
func (h *AdminHandler) RevokeAdmin(w http.ResponseWriter, r *http.Request) {
	h.moderationAction(w, r, h.adminService.RevokeAdmin, "Admin revoked")
}

// DeleteUser handles DELETE /admin/users/{id}
// Permanently removes the account and its content.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.moderationAction(w, r, h.adminService.DeleteUserAccount, "User deleted")
}

func (h *AdminHandler) moderationAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, adminID, targetID int64) error,
	message string,
) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	targetID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	err = action(r.Context(), adminID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCannotModerateSelf):
			httputil.WriteBadRequest(w, "Cannot moderate your own account")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] Moderation handler: admin=%d target=%d err=%v", adminID, targetID, err)
			httputil.WriteInternalError(w, "Failed to apply moderation action")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": message,
	})
}

// CreateReport handles POST /reports
// Any authenticated user can file a report.
func (h *AdminHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	reporterID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	report, err := h.adminService.CreateReport(r.Context(), reporterID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrReportReasonRequired):
			httputil.WriteBadRequest(w, "Report reason is required")
		case errors.Is(err, model.ErrInvalidEntityType):
			httputil.WriteBadRequest(w, "Entity type must be one of: post, comment, event, user")
		default:
			log.Printf("[ERROR] CreateReport handler: reporter=%d err=%v", reporterID, err)
			httputil.WriteInternalError(w, "Failed to create report")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, report)
}

// ListReports handles GET /admin/reports?status=
func (h *AdminHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	var status *string
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status = &statusStr
	}

	reports, err := h.adminService.ListReports(r.Context(), status)
	if err != nil {
		if errors.Is(err, model.ErrInvalidReportStatus) {
			httputil.WriteBadRequest(w, "Invalid report status")
			return
		}
		log.Printf("[ERROR] ListReports handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list reports")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}

// ReviewReport handles POST /admin/reports/{id}/review
func (h *AdminHandler) ReviewReport(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	reportID, err := parseIDParam(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid report ID")
		return
	}

	var req model.ReviewReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	report, err := h.adminService.ReviewReport(r.Context(), adminID, reportID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrReportNotFound):
			httputil.WriteNotFound(w, "Report not found")
		case errors.Is(err, model.ErrInvalidReportStatus):
			httputil.WriteBadRequest(w, "Status must be one of: reviewed, resolved, dismissed")
		case errors.Is(err, model.ErrReportStatusBackwards):
			httputil.WriteConflict(w, "Report status cannot move backwards")
		default:
			log.Printf("[ERROR] ReviewReport handler: admin=%d report=%d err=%v", adminID, reportID, err)
			httputil.WriteInternalError(w, "Failed to review report")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

// DeleteContent handles DELETE /admin/content
func (h *AdminHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.DeleteContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	err := h.adminService.DeleteContent(r.Context(), adminID, req.EntityID, req.EntityType, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidEntityType):
			httputil.WriteBadRequest(w, "Entity type must be one of: post, comment, event, user")
		case errors.Is(err, model.ErrCannotModerateSelf):
			httputil.WriteBadRequest(w, "Cannot moderate your own account")
		case errors.Is(err, model.ErrPostNotFound):
			httputil.WriteNotFound(w, "Post not found")
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrEventNotFound):
			httputil.WriteNotFound(w, "Event not found")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] DeleteContent handler: admin=%d entity=%s/%d err=%v", adminID, req.EntityType, req.EntityID, err)
			httputil.WriteInternalError(w, "Failed to delete content")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Content deleted",
	})
}

// ListAuditLogs handles GET /admin/audit-logs
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 200 {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	logs, err := h.adminService.ListAuditLogs(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] ListAuditLogs handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list audit logs")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
	})
}
