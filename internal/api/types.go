package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexID accepts an id sent either as a JSON number or as a numeric string,
// which is how the portal forms submit them. Invalid input is recorded
// rather than failing the decode so handlers can report a field-specific
// error.
type flexID struct {
	Value   int64
	Set     bool
	Invalid bool
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = flexID{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			f.Set, f.Invalid = true, true
			return nil
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			return nil
		}
	}

	f.Set = true
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f.Invalid = true
		return nil
	}
	f.Value = n
	return nil
}

// flexString accepts a JSON string or number. Room ids are strings in the
// schema but some clients send them as numbers. Any other token is flagged
// as invalid.
type flexString struct {
	Value   string
	Invalid bool
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	*f = flexString{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch c := b[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			f.Invalid = true
			return nil
		}
		f.Value = strings.TrimSpace(s)
	case c == '-' || (c >= '0' && c <= '9'):
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			f.Invalid = true
			return nil
		}
		f.Value = string(b)
	default:
		f.Invalid = true
	}
	return nil
}

type CreateAppointmentRequest struct {
	PatientID flexID `json:"Patient_ID"`
	DoctorID  flexID `json:"Doctor_ID"`
	Date      string `json:"Date"`
	Time      string `json:"Time"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"Status"`
}

type BookRoomRequest struct {
	PatientID flexID     `json:"Patient_ID"`
	RoomID    flexString `json:"Room_ID"`
}

type SubmitDiagnosisRequest struct {
	DoctorID   flexID `json:"Doctor_ID"`
	PatientID  flexID `json:"Patient_ID"`
	Diagnosis  string `json:"Diagnosis"`
	MedicineID flexID `json:"Medicine_ID"`
	Quantity   flexID `json:"Quantity"`
}

type CreateNotificationRequest struct {
	PatientID   flexID `json:"Patient_ID"`
	Type        string `json:"Type"`
	Title       string `json:"Title"`
	Body        string `json:"Body"`
	ScheduledAt string `json:"Scheduled_At"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
