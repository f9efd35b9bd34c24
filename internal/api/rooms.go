package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/hospital-portal/internal/room"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *handlers) bookRoom(w http.ResponseWriter, r *http.Request) {
	var req BookRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if req.PatientID.Invalid {
		h.errs.write(w, r, errInvalidID.WithMessage("Invalid Patient_ID format."))
		return
	}
	if req.RoomID.Invalid {
		h.errs.write(w, r, errInvalidID.WithMessage("Invalid Room_ID format."))
		return
	}

	booking, err := h.rooms.BookRoom(r.Context(), req.PatientID.Value, req.RoomID.Value)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Room booked successfully. Bill generated.",
		"Room_ID": booking.RoomID,
		"Bill_ID": booking.BillID,
	})
}

func (h *handlers) cancelRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	patientID, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, errInvalidID.WithMessage("Invalid Patient_ID."))
		return
	}

	c, err := h.rooms.CancelRoomBooking(r.Context(), roomID, patientID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": c.Message(),
		"Room_ID": c.RoomID,
		"Bill_ID": c.BillID,
	})
}

func (h *handlers) listWards(w http.ResponseWriter, r *http.Request) {
	wards, err := h.rooms.ListWards(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wards)
}

func (h *handlers) listBills(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	bills, err := h.rooms.ListBills(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if bills == nil {
		bills = []room.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (h *handlers) billingStatement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	body, err := h.rooms.BillingStatement(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%d.xlsx"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
