package appointment

import (
	"time"
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus accepts exactly the three stored status values.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Appointment is a booked doctor slot. Date is YYYY-MM-DD and Time is HH:MM.
type Appointment struct {
	ID        int64  `json:"Appt_ID"`
	PatientID int64  `json:"Patient_ID"`
	DoctorID  int64  `json:"Doctor_ID"`
	Date      string `json:"Date"`
	Time      string `json:"Time"`
	Status    Status `json:"Status"`
}

// PatientAppointment is a row of the patient portal's appointment list.
type PatientAppointment struct {
	ID         int64  `json:"Appt_ID"`
	Date       string `json:"Date"`
	Time       string `json:"Time"`
	Status     Status `json:"Status"`
	DoctorName string `json:"Doctor_Name"`
}

// DoctorAppointment is a row of the doctor's schedule.
type DoctorAppointment struct {
	ID          int64  `json:"Appt_ID"`
	Date        string `json:"Date"`
	Time        string `json:"Time"`
	Status      Status `json:"Status"`
	PatientName string `json:"Name"`
	PatientID   int64  `json:"Patient_ID"`
}

type Doctor struct {
	ID             int64   `json:"Doctor_ID"`
	Name           string  `json:"Name"`
	Specialization *string `json:"Specialization"`
}

type Department struct {
	ID      int64    `json:"Dept_ID"`
	Name    string   `json:"Name"`
	Doctors []Doctor `json:"doctors"`
}

// BookableSlots is what a client offers for one doctor on one day.
type BookableSlots struct {
	DoctorID int64    `json:"Doctor_ID"`
	Date     string   `json:"Date"`
	Slots    []string `json:"slots"`
}

// Upcoming is a scheduled appointment due inside a reminder window.
type Upcoming struct {
	ID          int64
	PatientID   int64
	PatientName string
	Date        string
	Time        string
}

// StartsAt resolves the appointment's wall-clock date and time in loc.
func (u Upcoming) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", u.Date+" "+u.Time, loc)
}

// CreateInput carries the fields of a booking request.
type CreateInput struct {
	PatientID int64
	DoctorID  int64
	Date      string
	Time      string
}
