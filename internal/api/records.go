package api

import (
	"net/http"
	"strconv"

	"github.com/hackgods/hospital-portal/internal/record"
)

func (h *handlers) listRecords(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	list, err := h.records.ListRecords(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) latestRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	sum, err := h.records.LatestRecord(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*record.Summary{"record": sum})
}

func (h *handlers) getPatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, errInvalidID.WithMessage("Invalid Patient ID format."))
		return
	}
	p, err := h.records.GetPatient(r.Context(), id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// timeline serves ?page= and ?pageSize=; missing or unparseable values use
// the defaults and the size is clamped by the record service.
func (h *handlers) timeline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientId")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	page := queryInt(r, "page", 1)
	size := queryInt(r, "pageSize", record.DefaultPageSize)

	tl, err := h.records.Timeline(r.Context(), id, page, size)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}
