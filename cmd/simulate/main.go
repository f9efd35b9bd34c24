package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/config"
	"github.com/hackgods/hospital-portal/internal/db"
	"github.com/hackgods/hospital-portal/internal/logging"
	"github.com/hackgods/hospital-portal/internal/slot"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Contenders   int // concurrent requests per contested slot or room
	BookingRatio float64
	StatusRatio  float64
	ReadRatio    float64
	Date         string // booking date, defaults to tomorrow
	PostgresDSN  string
}

type DataPool struct {
	Patients []int64
	Doctors  []int64
	Rooms    []string

	mu           sync.RWMutex
	appointments []int64
}

func (dp *DataPool) AddAppointment(id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (int64, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return 0, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	i := n * p / 100
	if i >= n {
		i = n - 1
	}
	return i
}

type Metrics struct {
	SlotRace    OperationMetrics
	RoomRace    OperationMetrics
	Booking     OperationMetrics
	Status      OperationMetrics
	ListPatient OperationMetrics
	ListDoctor  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  zerolog.Logger

	// double bookings observed in the race phases; must stay zero
	slotViolations int64
	roomViolations int64
}

func main() {
	cfg := loadConfig()
	logger := logging.New("", "info", "simulate")
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Int("contenders", cfg.Contenders).
		Str("date", cfg.Date).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool)
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}
	logger.Info().
		Int("patients", len(dataPool.Patients)).
		Int("doctors", len(dataPool.Doctors)).
		Int("rooms", len(dataPool.Rooms)).
		Msg("data loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	sim.RaceSlots()
	sim.RaceRooms()
	sim.Run()
	sim.PrintReport()

	if sim.slotViolations > 0 || sim.roomViolations > 0 {
		os.Exit(1)
	}
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("", "info", "simulate")
		bootLogger.Fatal().Err(err).Msg("failed to load base config")
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Contenders:   getInt("SIM_CONTENDERS", 20),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.1),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.4),
		Date:         getEnv("SIM_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	total := cfg.BookingRatio + cfg.StatusRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Contenders <= 1 {
		return fmt.Errorf("SIM_CONTENDERS must be > 1")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dataPool := &DataPool{}

	if err := collect(ctx, pool, `SELECT patient_id FROM patients ORDER BY patient_id LIMIT 2000`, &dataPool.Patients); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	if err := collect(ctx, pool, `SELECT doctor_id FROM doctors ORDER BY doctor_id`, &dataPool.Doctors); err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	if err := collect(ctx, pool, `SELECT room_id FROM rooms WHERE availability = 'Available' ORDER BY room_id`, &dataPool.Rooms); err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded")
	}
	return dataPool, nil
}

func collect[T any](ctx context.Context, pool *pgxpool.Pool, query string, dst *[]T) error {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v T
		if err := rows.Scan(&v); err != nil {
			return err
		}
		*dst = append(*dst, v)
	}
	return rows.Err()
}

// RaceSlots fires Contenders concurrent bookings at the same doctor slot for
// a handful of slots. Exactly one booking per slot may succeed.
func (s *Simulator) RaceSlots() {
	slots := slot.All()
	rounds := 5
	if rounds > len(s.pool.Doctors) {
		rounds = len(s.pool.Doctors)
	}

	for i := 0; i < rounds; i++ {
		doctor := s.pool.Doctors[i]
		hhmm := slots[len(slots)-1-i]

		var wg sync.WaitGroup
		var winners int64
		start := make(chan struct{})
		for c := 0; c < s.config.Contenders; c++ {
			wg.Add(1)
			go func(c int) {
				defer wg.Done()
				<-start
				patient := s.pool.Patients[c%len(s.pool.Patients)]
				status, latency, body := s.post(context.Background(), "/appointments", map[string]any{
					"Patient_ID": patient,
					"Doctor_ID":  doctor,
					"Date":       s.config.Date,
					"Time":       hhmm,
				})
				ok := status == http.StatusCreated
				if ok {
					atomic.AddInt64(&winners, 1)
					s.rememberAppointment(body)
				}
				s.metrics.SlotRace.Record(latency, ok, status == http.StatusConflict)
			}(c)
		}
		close(start)
		wg.Wait()

		if winners > 1 {
			atomic.AddInt64(&s.slotViolations, winners-1)
		}
		s.logger.Info().Int64("doctor_id", doctor).Str("time", hhmm).Int64("winners", winners).Msg("slot race finished")
	}
}

// RaceRooms has Contenders patients book the same room at once, then frees
// it again. Exactly one booking per room may succeed.
func (s *Simulator) RaceRooms() {
	rounds := 3
	if rounds > len(s.pool.Rooms) {
		rounds = len(s.pool.Rooms)
	}

	for i := 0; i < rounds; i++ {
		roomID := s.pool.Rooms[i]

		var wg sync.WaitGroup
		var winners int64
		var winner int64
		start := make(chan struct{})
		for c := 0; c < s.config.Contenders; c++ {
			wg.Add(1)
			go func(c int) {
				defer wg.Done()
				<-start
				patient := s.pool.Patients[c%len(s.pool.Patients)]
				status, latency, _ := s.post(context.Background(), "/bookRoom", map[string]any{
					"Patient_ID": patient,
					"Room_ID":    roomID,
				})
				ok := status == http.StatusOK
				if ok {
					atomic.AddInt64(&winners, 1)
					atomic.StoreInt64(&winner, patient)
				}
				s.metrics.RoomRace.Record(latency, ok, status == http.StatusBadRequest)
			}(c)
		}
		close(start)
		wg.Wait()

		if winners > 1 {
			atomic.AddInt64(&s.roomViolations, winners-1)
		}
		if winners > 0 {
			s.do(context.Background(), http.MethodDelete, fmt.Sprintf("/room/%s/%d", roomID, winner), nil)
		}
		s.logger.Info().Str("room_id", roomID).Int64("winners", winners).Msg("room race finished")
	}
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting load phase")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()

	s.logger.Info().Msg("load phase complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	slots := slot.All()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			status, latency, body := s.post(ctx, "/appointments", map[string]any{
				"Patient_ID": s.pool.Patients[rng.Intn(len(s.pool.Patients))],
				"Doctor_ID":  s.pool.Doctors[rng.Intn(len(s.pool.Doctors))],
				"Date":       s.config.Date,
				"Time":       slots[rng.Intn(len(slots))],
			})
			if status == http.StatusCreated {
				s.rememberAppointment(body)
			}
			s.metrics.Booking.Record(latency, status == http.StatusCreated, status == http.StatusConflict)

		case r < s.config.BookingRatio+s.config.StatusRatio:
			id, ok := s.pool.RandomAppointment(rng)
			if !ok {
				continue
			}
			next := []string{"Completed", "Cancelled", "Scheduled"}[rng.Intn(3)]
			status, latency, _ := s.do(ctx, http.MethodPut, fmt.Sprintf("/appointments/%d", id), map[string]any{"Status": next})
			s.metrics.Status.Record(latency, status == http.StatusOK, status == http.StatusConflict)

		default:
			if rng.Intn(2) == 0 {
				patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
				status, latency, _ := s.do(ctx, http.MethodGet, fmt.Sprintf("/appointments/%d", patient), nil)
				s.metrics.ListPatient.Record(latency, status == http.StatusOK, false)
			} else {
				doctor := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
				status, latency, _ := s.do(ctx, http.MethodGet, fmt.Sprintf("/appointments/doctor/%d", doctor), nil)
				s.metrics.ListDoctor.Record(latency, status == http.StatusOK, false)
			}
		}
	}
}

func (s *Simulator) rememberAppointment(body []byte) {
	var resp struct {
		Appointment struct {
			ID int64 `json:"Appt_ID"`
		} `json:"appointment"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Appointment.ID != 0 {
		s.pool.AddAppointment(resp.Appointment.ID)
	}
}

func (s *Simulator) post(ctx context.Context, path string, payload any) (int, time.Duration, []byte) {
	return s.do(ctx, http.MethodPost, path, payload)
}

// do returns status 0 on transport errors.
func (s *Simulator) do(ctx context.Context, method, path string, payload any) (int, time.Duration, []byte) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, body)
	if err != nil {
		return 0, 0, nil
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, nil
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, latency, b
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Double bookings: slots=%d rooms=%d\n", s.slotViolations, s.roomViolations)
	fmt.Println()

	printOperationReport("Slot race", &s.metrics.SlotRace)
	printOperationReport("Room race", &s.metrics.RoomRace)
	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status update", &s.metrics.Status)
	printOperationReport("List by patient", &s.metrics.ListPatient)
	printOperationReport("List by doctor", &s.metrics.ListDoctor)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
