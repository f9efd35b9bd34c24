package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/appointment"
)

var (
	errInvalidBody = apperr.New(apperr.KindInvalidRequest, "invalid_request_body", "Could not parse JSON request body.")
	errInvalidID   = apperr.New(apperr.KindInvalidRequest, "invalid_id", "Invalid id.")
	errMissingDate = apperr.New(apperr.KindInvalidRequest, "missing_date", "Query parameter date is required (YYYY-MM-DD).")
)

// pathID reads a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID.Withf("Invalid %s: %q.", name, raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func (h *handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if req.PatientID.Invalid || req.DoctorID.Invalid {
		h.errs.write(w, r, errInvalidID.WithMessage("Invalid Patient_ID or Doctor_ID format."))
		return
	}

	appt, err := h.appointments.CreateAppointment(r.Context(), appointment.CreateInput{
		PatientID: req.PatientID.Value,
		DoctorID:  req.DoctorID.Value,
		Date:      req.Date,
		Time:      req.Time,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":     "Appointment booked successfully",
		"appointment": appt,
	})
}

func (h *handlers) updateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "apptId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	var req UpdateAppointmentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}

	status, err := h.appointments.UpdateAppointmentStatus(r.Context(), id, req.Status)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Appointment ID %d status updated to %s.", id, status),
	})
}

func (h *handlers) listPatientAppointments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	list, err := h.appointments.ListAppointmentsForPatient(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) listDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	list, err := h.appointments.ListAppointmentsForDoctor(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) listDepartments(w http.ResponseWriter, r *http.Request) {
	list, err := h.appointments.ListDepartments(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) listBookableSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "doctorId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		h.errs.write(w, r, errMissingDate)
		return
	}

	slots, err := h.appointments.ListBookableSlots(r.Context(), id, date)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}
