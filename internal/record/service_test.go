package record

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/appointment"
	"github.com/hackgods/hospital-portal/internal/prescription"
)

type mockRepo struct {
	records  []MedicalRecord
	patients map[int64]Patient
	err      error
}

func (m *mockRepo) ListForPatient(context.Context, int64) ([]MedicalRecord, error) {
	return m.records, m.err
}

func (m *mockRepo) Latest(context.Context, int64) (*Summary, error) {
	if m.err != nil || len(m.records) == 0 {
		return nil, m.err
	}
	r := m.records[0]
	return &Summary{Diagnosis: r.Diagnosis, Allergies: r.Allergies, Surgeries: r.Surgeries}, nil
}

func (m *mockRepo) GetPatient(_ context.Context, id int64) (*Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type fakeAppointments struct {
	list []appointment.PatientAppointment
	err  error
}

func (f *fakeAppointments) ListAppointmentsForPatient(context.Context, int64) ([]appointment.PatientAppointment, error) {
	return f.list, f.err
}

type fakePrescriptions struct {
	list []prescription.Prescription
}

func (f *fakePrescriptions) ListPrescriptions(context.Context, int64) ([]prescription.Prescription, error) {
	return f.list, nil
}

func strPtr(s string) *string { return &s }

func newTestService(repo *mockRepo, appts *fakeAppointments, rx *fakePrescriptions) *Service {
	return NewService(repo, appts, rx, zerolog.Nop())
}

func TestTimeline_MergesNewestFirst(t *testing.T) {
	repo := &mockRepo{records: []MedicalRecord{
		{ID: 1, Diagnosis: "Asthma", Allergies: strPtr("Pollen"), Date: "2025-01-05"},
	}}
	rx := &fakePrescriptions{list: []prescription.Prescription{
		{ID: 20, MedicineName: "Salbutamol", Quantity: 2, DatePrescribed: "2025-01-06"},
	}}
	appts := &fakeAppointments{list: []appointment.PatientAppointment{
		{ID: 30, Date: "2025-01-10", Time: "09:00", Status: appointment.StatusScheduled},
		{ID: 31, Date: "2025-01-05", Time: "14:30", Status: appointment.StatusCompleted},
	}}

	tl, err := newTestService(repo, appts, rx).Timeline(context.Background(), 1, 1, 10)
	require.NoError(t, err)

	assert.Equal(t, 4, tl.Total)
	assert.Equal(t, 1, tl.Page)
	assert.Equal(t, 10, tl.PageSize)
	require.Len(t, tl.Events, 4)

	var order []string
	for _, ev := range tl.Events {
		order = append(order, fmt.Sprintf("%s:%d", ev.Type, ev.ID))
	}
	assert.Equal(t, []string{"appointment:30", "prescription:20", "appointment:31", "record:1"}, order)

	assert.Equal(t, "2025-01-10 09:00", tl.Events[0].Date)
	assert.Equal(t, "Appointment (Scheduled)", tl.Events[0].Title)
	assert.Equal(t, map[string]any{"Time": "09:00", "Status": appointment.StatusScheduled}, tl.Events[0].Details)
	assert.Equal(t, "Salbutamol", tl.Events[1].Title)
	assert.Equal(t, map[string]any{"Quantity": 2}, tl.Events[1].Details)
	assert.Equal(t, "Asthma", tl.Events[3].Title)
}

func TestTimeline_Pagination(t *testing.T) {
	var appts []appointment.PatientAppointment
	for i := 0; i < 12; i++ {
		appts = append(appts, appointment.PatientAppointment{
			ID: int64(i + 1), Date: fmt.Sprintf("2025-01-%02d", i+1), Time: "09:00", Status: appointment.StatusCompleted,
		})
	}
	svc := newTestService(&mockRepo{}, &fakeAppointments{list: appts}, &fakePrescriptions{})

	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantSize     int
		wantIDs      []int64
		wantEventLen int
	}{
		{"default size", 1, 0, 1, 10, []int64{12, 11}, 10},
		{"size clamped up", 1, 2, 1, 5, []int64{12, 11}, 5},
		{"size clamped down", 1, 500, 1, 50, []int64{12, 11}, 12},
		{"second page", 2, 5, 2, 5, []int64{7, 6}, 5},
		{"last partial page", 3, 5, 3, 5, []int64{2, 1}, 2},
		{"past the end", 9, 5, 9, 5, nil, 0},
		{"page below one", 0, 5, 1, 5, []int64{12, 11}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, err := svc.Timeline(context.Background(), 1, tt.page, tt.size)
			require.NoError(t, err)
			assert.Equal(t, 12, tl.Total)
			assert.Equal(t, tt.wantPage, tl.Page)
			assert.Equal(t, tt.wantSize, tl.PageSize)
			require.Len(t, tl.Events, tt.wantEventLen)
			for i, id := range tt.wantIDs {
				assert.Equal(t, id, tl.Events[i].ID)
			}
		})
	}
}

func TestTimeline_SourceError(t *testing.T) {
	boom := errors.New("db down")
	svc := newTestService(&mockRepo{}, &fakeAppointments{err: boom}, &fakePrescriptions{})

	_, err := svc.Timeline(context.Background(), 1, 1, 10)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampPageSize(0))
	assert.Equal(t, MinPageSize, ClampPageSize(-3))
	assert.Equal(t, MinPageSize, ClampPageSize(1))
	assert.Equal(t, 20, ClampPageSize(20))
	assert.Equal(t, MaxPageSize, ClampPageSize(51))
}

func TestGetPatient(t *testing.T) {
	repo := &mockRepo{patients: map[int64]Patient{1: {ID: 1, Name: "Alice"}}}
	svc := newTestService(repo, &fakeAppointments{}, &fakePrescriptions{})

	p, err := svc.GetPatient(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)

	_, err = svc.GetPatient(context.Background(), 42)
	require.ErrorIs(t, err, ErrPatientNotFound)
	assert.Equal(t, "Patient with ID 42 not found.", err.Error())
}

func TestLatestRecord(t *testing.T) {
	svc := newTestService(&mockRepo{}, &fakeAppointments{}, &fakePrescriptions{})
	sum, err := svc.LatestRecord(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, sum)

	repo := &mockRepo{records: []MedicalRecord{{ID: 2, Diagnosis: "Flu", Date: "2025-01-09"}}}
	sum, err = newTestService(repo, &fakeAppointments{}, &fakePrescriptions{}).LatestRecord(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Flu", sum.Diagnosis)
}
