package room

import (
	"fmt"
)

type Availability string

const (
	Available   Availability = "Available"
	Unavailable Availability = "Unavailable"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentCancelled PaymentStatus = "Cancelled"
)

// BookingAmount is the flat charge billed when a room is booked.
const BookingAmount = 5000.00

type Room struct {
	ID                 string       `json:"Room_ID"`
	Type               string       `json:"Type"`
	Availability       Availability `json:"Availability"`
	PatientIDOccupying *int64       `json:"Patient_ID_Occupying"`
}

type Ward struct {
	ID    int64  `json:"Ward_ID"`
	Name  string `json:"Ward_Name"`
	Rooms []Room `json:"rooms"`
}

type Bill struct {
	ID            int64         `json:"Bill_ID"`
	RoomID        *string       `json:"Room_ID,omitempty"`
	Item          string        `json:"Item"`
	Amount        float64       `json:"Amount"`
	PaymentStatus PaymentStatus `json:"Payment_Status"`
	DateIssued    string        `json:"Date_Issued"`
}

// LockedRoom is the row read under FOR UPDATE at the start of a booking.
type LockedRoom struct {
	ID           string
	WardID       int64
	Availability Availability
}

type NewBill struct {
	PatientID int64
	RoomID    string
	Item      string
	Amount    float64
}

// Booking is the result of BookRoom.
type Booking struct {
	RoomID string
	BillID int64
}

// Cancellation is the result of CancelRoomBooking. BillID is nil when no
// pending bill was found for the booking.
type Cancellation struct {
	RoomID string
	BillID *int64
}

func (c Cancellation) Message() string {
	if c.BillID == nil {
		return fmt.Sprintf("Room %s booking successfully cancelled but no pending bill was found to remove.", c.RoomID)
	}
	return fmt.Sprintf("Room %s booking successfully cancelled and pending bill removed.", c.RoomID)
}

// BookingItem is the bill line for a room booking.
func BookingItem(roomID string, wardID int64) string {
	return fmt.Sprintf("Room Booking (%s - Ward %d)", roomID, wardID)
}
