package record

import "time"

// MedicalRecord is one entry of a patient's medical history. Date is
// YYYY-MM-DD.
type MedicalRecord struct {
	ID        int64   `json:"Record_ID"`
	Diagnosis string  `json:"Diagnosis"`
	Allergies *string `json:"Allergies"`
	Surgeries *string `json:"Surgeries"`
	Date      string  `json:"Date"`
}

// Summary is the newest record shown on the patient profile.
type Summary struct {
	Diagnosis string  `json:"Diagnosis"`
	Allergies *string `json:"Allergies"`
	Surgeries *string `json:"Surgeries"`
}

type Patient struct {
	ID              int64   `json:"Patient_ID"`
	Name            string  `json:"Name"`
	DOB             *string `json:"DOB"`
	Gender          *string `json:"Gender"`
	Address         *string `json:"Address"`
	PrimaryDoctorID *int64  `json:"Primary_Doctor_ID"`
}

type EventType string

const (
	EventRecord       EventType = "record"
	EventPrescription EventType = "prescription"
	EventAppointment  EventType = "appointment"
)

// Event is one entry of the patient timeline. Date is YYYY-MM-DD, or
// "YYYY-MM-DD HH:MM" for appointments.
type Event struct {
	Type    EventType      `json:"type"`
	ID      int64          `json:"id"`
	Date    string         `json:"date"`
	Title   string         `json:"title"`
	Details map[string]any `json:"details"`

	at time.Time
}

// Timeline is one page of a patient's events, newest first.
type Timeline struct {
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
	Events   []Event `json:"events"`
}
