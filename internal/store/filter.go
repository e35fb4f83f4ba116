package store

import (
	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/model"
)

// ParseStatusFilter accepts "all" (or empty) and the three request statuses.
func ParseStatusFilter(v string) (string, error) {
	if v == "" || v == model.StatusAll {
		return model.StatusAll, nil
	}
	if !model.RequestStatus(v).Valid() {
		return "", errs.ErrInvalidStatus
	}
	return v, nil
}

// FilterByStatus keeps the requests whose status equals status, preserving
// input order. "all" returns the input unchanged.
func FilterByStatus(requests []model.Request, status string) []model.Request {
	if status == model.StatusAll {
		return requests
	}
	out := make([]model.Request, 0, len(requests))
	for _, r := range requests {
		if string(r.Status) == status {
			out = append(out, r)
		}
	}
	return out
}

func OwnedBy(requests []model.Request, userID string) []model.Request {
	out := make([]model.Request, 0, len(requests))
	for _, r := range requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func Find(requests []model.Request, id string) (model.Request, bool) {
	for _, r := range requests {
		if r.ID == id {
			return r, true
		}
	}
	return model.Request{}, false
}

type Stats struct {
	TotalRequests      int `json:"total_requests"`
	PendingRequests    int `json:"pending_requests"`
	InProgressRequests int `json:"in_progress_requests"`
	CompletedRequests  int `json:"completed_requests"`
	ActiveUsers        int `json:"active_users"`
}

func ComputeStats(requests []model.Request, users []model.User) Stats {
	s := Stats{TotalRequests: len(requests)}
	for _, r := range requests {
		switch r.Status {
		case model.RequestStatusPending:
			s.PendingRequests++
		case model.RequestStatusInProgress:
			s.InProgressRequests++
		case model.RequestStatusCompleted:
			s.CompletedRequests++
		}
	}
	for _, u := range users {
		if u.OpenRequests > 0 {
			s.ActiveUsers++
		}
	}
	return s
}
