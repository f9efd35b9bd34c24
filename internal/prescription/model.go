package prescription

type Medicine struct {
	ID    int64  `json:"Medicine_ID"`
	Name  string `json:"Name"`
	Stock int    `json:"Stock"`
}

type Prescription struct {
	ID             int64  `json:"Prescription_ID"`
	PatientID      int64  `json:"Patient_ID"`
	MedicineID     int64  `json:"Medicine_ID"`
	MedicineName   string `json:"Medicine_Name"`
	Quantity       int    `json:"Quantity"`
	DatePrescribed string `json:"Date_Prescribed"`
	DoctorID       int64  `json:"Doctor_ID"`
}

// SubmitInput is a doctor's diagnosis with an optional prescription.
// MedicineID and Quantity are zero when the client sent none.
type SubmitInput struct {
	DoctorID   int64
	PatientID  int64
	Diagnosis  string
	MedicineID int64
	Quantity   int
}

type NewPrescription struct {
	PatientID  int64
	MedicineID int64
	DoctorID   int64
	Quantity   int
}

// Submission is the result of a successful submit.
type Submission struct {
	PrescriptionID    int64
	PrescriptionCount int
	RemainingStock    int
}
