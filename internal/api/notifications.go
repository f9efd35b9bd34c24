package api

import (
	"net/http"
	"time"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/notification"
)

var errInvalidScheduledAt = apperr.New(apperr.KindInvalidRequest, "invalid_scheduled_at", "Scheduled_At must be an RFC 3339 timestamp.")

func (h *handlers) createNotification(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if req.PatientID.Invalid {
		h.errs.write(w, r, errInvalidID.WithMessage("Invalid Patient_ID format."))
		return
	}

	in := notification.CreateInput{
		PatientID: req.PatientID.Value,
		Type:      req.Type,
		Title:     req.Title,
		Body:      req.Body,
	}
	if req.ScheduledAt != "" {
		at, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			h.errs.write(w, r, errInvalidScheduledAt)
			return
		}
		in.ScheduledAt = &at
	}

	id, err := notification.Create(r.Context(), h.notifications, in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"Notification_ID": id})
}

func (h *handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	list, err := h.notifications.ListByPatient(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Marked as read."})
}

func (h *handlers) runReminders(w http.ResponseWriter, r *http.Request) {
	if h.production {
		writeError(w, http.StatusForbidden, "forbidden", "Not available in production.")
		return
	}

	res, err := h.reminders.RunOnce(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Reminder sweep completed.",
		"scheduled": res.Scheduled,
		"sent":      res.Sent,
	})
}
