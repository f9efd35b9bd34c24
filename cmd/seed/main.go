package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/config"
	"github.com/hackgods/hospital-portal/internal/db"
	"github.com/hackgods/hospital-portal/internal/logging"
)

var departments = []string{
	"Cardiology",
	"Dermatology",
	"General Medicine",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var medicines = []string{
	"Paracetamol 500mg",
	"Ibuprofen 400mg",
	"Amoxicillin 250mg",
	"Metformin 500mg",
	"Atorvastatin 20mg",
	"Omeprazole 20mg",
	"Cetirizine 10mg",
	"Salbutamol Inhaler",
}

var roomTypes = []string{"General", "Semi-Private", "Private", "ICU"}

type seeder struct {
	store  *db.Store
	logger zerolog.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("", "info", "seed")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel, "seed")
	logger.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: cfg.DBMaxConns, MinConns: 1})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	s := &seeder{store: db.NewStore(db.OpenSQL(pool), logger), logger: logger}
	ctx = context.Background()

	doctorsPerDept := getInt("SEED_DOCTORS_PER_DEPT", 5)
	patients := getInt("SEED_PATIENTS", 500)
	wards := getInt("SEED_WARDS", 4)
	roomsPerWard := getInt("SEED_ROOMS_PER_WARD", 10)

	doctorIDs, err := s.seedDepartments(ctx, doctorsPerDept)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed departments")
	}
	if err := s.seedPatients(ctx, patients, doctorIDs); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := s.seedWards(ctx, wards, roomsPerWard); err != nil {
		logger.Fatal().Err(err).Msg("seed wards")
	}
	if err := s.seedMedicines(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed medicines")
	}
	if err := s.seedMedicalRecords(ctx, getInt("SEED_RECORDS_PER_PATIENT", 2)); err != nil {
		logger.Fatal().Err(err).Msg("seed medical records")
	}

	logger.Info().Msg("seed complete")
}

func (s *seeder) seedDepartments(ctx context.Context, doctorsPerDept int) ([]int64, error) {
	var doctorIDs []int64
	err := s.store.WithTx(ctx, func(q db.Querier) error {
		for _, name := range departments {
			var deptID int64
			err := q.QueryRowContext(ctx, `
				INSERT INTO departments (name) VALUES ($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING dept_id
			`, name).Scan(&deptID)
			if err != nil {
				return fmt.Errorf("insert department %s: %w", name, err)
			}

			for i := 0; i < doctorsPerDept; i++ {
				var doctorID int64
				err := q.QueryRowContext(ctx, `
					INSERT INTO doctors (dept_id, name, specialization)
					VALUES ($1, $2, $3)
					RETURNING doctor_id
				`, deptID, "Dr. "+gofakeit.Name(), name).Scan(&doctorID)
				if err != nil {
					return fmt.Errorf("insert doctor: %w", err)
				}
				doctorIDs = append(doctorIDs, doctorID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("departments", len(departments)).Int("doctors", len(doctorIDs)).Msg("departments seeded")
	return doctorIDs, nil
}

func (s *seeder) seedPatients(ctx context.Context, count int, doctorIDs []int64) error {
	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		err := s.store.WithTx(ctx, func(q db.Querier) error {
			for i := offset; i < end; i++ {
				dob := gofakeit.DateRange(
					time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
				)
				var primary any
				if len(doctorIDs) > 0 {
					primary = doctorIDs[gofakeit.Number(0, len(doctorIDs)-1)]
				}

				_, err := q.ExecContext(ctx, `
					INSERT INTO patients (name, dob, gender, address, primary_doctor_id)
					VALUES ($1, $2, $3, $4, $5)
				`, gofakeit.Name(), dob.Format("2006-01-02"), gofakeit.Gender(),
					gofakeit.Street()+", "+gofakeit.City(), primary)
				if err != nil {
					return fmt.Errorf("insert patient: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		s.logger.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}
	return nil
}

func (s *seeder) seedWards(ctx context.Context, wards, roomsPerWard int) error {
	return s.store.WithTx(ctx, func(q db.Querier) error {
		for w := 1; w <= wards; w++ {
			var wardID int64
			err := q.QueryRowContext(ctx, `
				INSERT INTO wards (ward_name) VALUES ($1) RETURNING ward_id
			`, fmt.Sprintf("Ward %c", 'A'+rune(w-1))).Scan(&wardID)
			if err != nil {
				return fmt.Errorf("insert ward: %w", err)
			}

			for r := 1; r <= roomsPerWard; r++ {
				roomID := fmt.Sprintf("W%d-R%02d", wardID, r)
				_, err := q.ExecContext(ctx, `
					INSERT INTO rooms (room_id, ward_id, type, availability)
					VALUES ($1, $2, $3, 'Available')
					ON CONFLICT (room_id) DO NOTHING
				`, roomID, wardID, gofakeit.RandomString(roomTypes))
				if err != nil {
					return fmt.Errorf("insert room %s: %w", roomID, err)
				}
			}
		}
		s.logger.Info().Int("wards", wards).Int("rooms_per_ward", roomsPerWard).Msg("wards seeded")
		return nil
	})
}

func (s *seeder) seedMedicines(ctx context.Context) error {
	return s.store.WithTx(ctx, func(q db.Querier) error {
		for _, name := range medicines {
			_, err := q.ExecContext(ctx, `
				INSERT INTO medicines (name, stock) VALUES ($1, $2)
			`, name, gofakeit.Number(20, 500))
			if err != nil {
				return fmt.Errorf("insert medicine %s: %w", name, err)
			}
		}
		s.logger.Info().Int("medicines", len(medicines)).Msg("medicines seeded")
		return nil
	})
}

var (
	diagnoses = []string{"Hypertension", "Type 2 diabetes", "Asthma", "Migraine", "Influenza", "Bronchitis", "Anemia", "Gastritis"}
	allergies = []string{"Penicillin", "Peanuts", "Pollen", "Latex", "Dust mites"}
	surgeries = []string{"Appendectomy", "Tonsillectomy", "Knee arthroscopy", "Cholecystectomy"}
)

// seedMedicalRecords gives every patient up to perPatient history entries.
func (s *seeder) seedMedicalRecords(ctx context.Context, perPatient int) error {
	if perPatient <= 0 {
		return nil
	}
	inserted := 0
	err := s.store.WithTx(ctx, func(q db.Querier) error {
		rows, err := q.QueryContext(ctx, `SELECT patient_id FROM patients`)
		if err != nil {
			return fmt.Errorf("list patients: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			for i := gofakeit.Number(0, perPatient); i > 0; i-- {
				var allergy, surgery any
				if gofakeit.Bool() {
					allergy = gofakeit.RandomString(allergies)
				}
				if gofakeit.Number(0, 3) == 0 {
					surgery = gofakeit.RandomString(surgeries)
				}
				date := gofakeit.DateRange(time.Now().AddDate(-5, 0, 0), time.Now())
				_, err := q.ExecContext(ctx, `
					INSERT INTO medical_records (patient_id, diagnosis, allergies, surgeries, record_date)
					VALUES ($1, $2, $3, $4, $5)
				`, id, gofakeit.RandomString(diagnoses), allergy, surgery, date.Format("2006-01-02"))
				if err != nil {
					return fmt.Errorf("insert medical record: %w", err)
				}
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int("records", inserted).Msg("medical records seeded")
	return nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
