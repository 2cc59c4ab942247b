package model

import "testing"

func TestCanTransitionReportStatus(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{ReportStatusPending, ReportStatusReviewed, true},
		{ReportStatusPending, ReportStatusResolved, true},
		{ReportStatusPending, ReportStatusDismissed, true},
		{ReportStatusReviewed, ReportStatusResolved, true},
		{ReportStatusReviewed, ReportStatusDismissed, true},

		// No standing still, no moving back.
		{ReportStatusPending, ReportStatusPending, false},
		{ReportStatusReviewed, ReportStatusPending, false},
		{ReportStatusResolved, ReportStatusReviewed, false},
		{ReportStatusDismissed, ReportStatusReviewed, false},

		// Terminal states never move, even "sideways".
		{ReportStatusResolved, ReportStatusDismissed, false},
		{ReportStatusDismissed, ReportStatusResolved, false},

		// Unknown statuses are rejected outright.
		{"open", ReportStatusResolved, false},
		{ReportStatusPending, "closed", false},
	}

	for _, tc := range cases {
		if got := CanTransitionReportStatus(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionReportStatus(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
