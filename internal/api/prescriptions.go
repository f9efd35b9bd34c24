package api

import (
	"net/http"

	"github.com/hackgods/hospital-portal/internal/prescription"
)

func (h *handlers) submitDiagnosis(w http.ResponseWriter, r *http.Request) {
	var req SubmitDiagnosisRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}

	switch {
	case !req.DoctorID.Set || !req.PatientID.Set:
		h.errs.write(w, r, prescription.ErrMissingIDs)
		return
	case req.DoctorID.Invalid || req.PatientID.Invalid:
		h.errs.write(w, r, prescription.ErrInvalidIDFormat)
		return
	case req.MedicineID.Invalid || req.Quantity.Invalid:
		h.errs.write(w, r, prescription.ErrInvalidMedicineFormat)
		return
	}

	sub, err := h.prescriptions.SubmitDiagnosisWithPrescription(r.Context(), prescription.SubmitInput{
		DoctorID:   req.DoctorID.Value,
		PatientID:  req.PatientID.Value,
		Diagnosis:  req.Diagnosis,
		MedicineID: req.MedicineID.Value,
		Quantity:   int(req.Quantity.Value),
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"prescriptionCount": sub.PrescriptionCount,
	})
}

func (h *handlers) listMedicines(w http.ResponseWriter, r *http.Request) {
	meds, err := h.prescriptions.ListMedicines(r.Context())
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if meds == nil {
		meds = []prescription.Medicine{}
	}
	writeJSON(w, http.StatusOK, meds)
}

func (h *handlers) listPrescriptions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	list, err := h.prescriptions.ListPrescriptions(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if list == nil {
		list = []prescription.Prescription{}
	}
	writeJSON(w, http.StatusOK, list)
}
