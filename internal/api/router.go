package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/appointment"
	"github.com/hackgods/hospital-portal/internal/config"
	"github.com/hackgods/hospital-portal/internal/notification"
	"github.com/hackgods/hospital-portal/internal/prescription"
	"github.com/hackgods/hospital-portal/internal/record"
	"github.com/hackgods/hospital-portal/internal/room"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, in appointment.CreateInput) (*appointment.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status string) (appointment.Status, error)
	ListAppointmentsForPatient(ctx context.Context, patientID int64) ([]appointment.PatientAppointment, error)
	ListAppointmentsForDoctor(ctx context.Context, doctorID int64) ([]appointment.DoctorAppointment, error)
	ListBookableSlots(ctx context.Context, doctorID int64, date string) (*appointment.BookableSlots, error)
	ListDepartments(ctx context.Context) ([]appointment.Department, error)
}

type RoomService interface {
	BookRoom(ctx context.Context, patientID int64, roomID string) (*room.Booking, error)
	CancelRoomBooking(ctx context.Context, roomID string, patientID int64) (*room.Cancellation, error)
	ListWards(ctx context.Context) ([]room.Ward, error)
	ListBills(ctx context.Context, patientID int64) ([]room.Bill, error)
	BillingStatement(ctx context.Context, patientID int64) ([]byte, error)
}

type PrescriptionService interface {
	SubmitDiagnosisWithPrescription(ctx context.Context, in prescription.SubmitInput) (*prescription.Submission, error)
	ListMedicines(ctx context.Context) ([]prescription.Medicine, error)
	ListPrescriptions(ctx context.Context, patientID int64) ([]prescription.Prescription, error)
}

type RecordService interface {
	ListRecords(ctx context.Context, patientID int64) ([]record.MedicalRecord, error)
	LatestRecord(ctx context.Context, patientID int64) (*record.Summary, error)
	GetPatient(ctx context.Context, patientID int64) (*record.Patient, error)
	Timeline(ctx context.Context, patientID int64, page, pageSize int) (*record.Timeline, error)
}

// ReminderRunner is satisfied by *notification.Sweeper.
type ReminderRunner interface {
	RunOnce(ctx context.Context) (notification.SweepResult, error)
}

type RouterConfig struct {
	Appointments  AppointmentService
	Rooms         RoomService
	Prescriptions PrescriptionService
	Records       RecordService
	Notifications notification.Store
	Reminders     ReminderRunner
	DB            DBPinger
	Redis         *redis.Client
	RateLimiter   *IPRateLimiter // nil disables rate limiting
	Logger        zerolog.Logger
	Env           string
	Version       string
}

type handlers struct {
	appointments  AppointmentService
	rooms         RoomService
	prescriptions PrescriptionService
	records       RecordService
	notifications notification.Store
	reminders     ReminderRunner
	production    bool
	errs          errorWriter
}

func NewRouter(cfg RouterConfig) http.Handler {
	production := config.IsProductionEnv(cfg.Env)
	h := &handlers{
		appointments:  cfg.Appointments,
		rooms:         cfg.Rooms,
		prescriptions: cfg.Prescriptions,
		records:       cfg.Records,
		notifications: cfg.Notifications,
		reminders:     cfg.Reminders,
		production:    production,
		errs:          errorWriter{production: production, logger: cfg.Logger},
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoverMiddleware(cfg.Logger))

	// Health endpoints stay outside the rate limit
	health := NewHealthHandler(cfg.DB, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/_health", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		r.Use(middleware.Timeout(30 * time.Second))

		// Appointments
		r.Post("/appointments", h.createAppointment)
		r.Put("/appointments/{apptId}", h.updateAppointmentStatus)
		r.Get("/appointments/{patientId}", h.listPatientAppointments)
		r.Get("/appointments/doctor/{doctorId}", h.listDoctorAppointments)

		// Directory
		r.Get("/departments", h.listDepartments)
		r.Get("/doctors/{doctorId}/slots", h.listBookableSlots)
		r.Get("/wards", h.listWards)

		// Rooms and billing
		r.Post("/bookRoom", h.bookRoom)
		r.Delete("/room/{roomId}/{patientId}", h.cancelRoom)
		r.Get("/bills/{patientId}", h.listBills)
		r.Get("/bills/{patientId}/statement.xlsx", h.billingStatement)

		// Prescriptions
		r.Post("/submitDiagnosis", h.submitDiagnosis)
		r.Get("/medicines", h.listMedicines)
		r.Get("/prescriptions/{patientId}", h.listPrescriptions)

		// Medical records
		r.Get("/records/{patientId}", h.listRecords)
		r.Get("/records/latest/{patientId}", h.latestRecord)
		r.Get("/patient/record/{patientId}", h.getPatient)
		r.Get("/timeline/{patientId}", h.timeline)

		// Notifications
		if cfg.Notifications != nil {
			r.Post("/notifications", h.createNotification)
			r.Get("/notifications/{patientId}", h.listNotifications)
			r.Put("/notifications/{id}/read", h.markNotificationRead)
		}
		if cfg.Reminders != nil {
			r.Post("/debug/run-reminders", h.runReminders)
		}
	})

	return r
}
