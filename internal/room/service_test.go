package room

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/hospital-portal/internal/apperr"
	"github.com/hackgods/hospital-portal/internal/db"
	"github.com/hackgods/hospital-portal/internal/eventlog"
)

type mockRoom struct {
	wardID   int64
	typ      string
	avail    Availability
	occupant *int64
}

type mockBill struct {
	Bill
	patientID int64
}

// mockRepo models the rooms and bills tables.
type mockRepo struct {
	mu         sync.Mutex
	rooms      map[string]mockRoom
	bills      map[int64]mockBill
	nextBillID int64

	insertBillErr error
	deleteMisses  bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		rooms: map[string]mockRoom{
			"R101": {wardID: 1, typ: "Private", avail: Available},
			"R102": {wardID: 1, typ: "Shared", avail: Available},
		},
		bills: make(map[int64]mockBill),
	}
}

func (m *mockRepo) snapshot() func() {
	rooms := make(map[string]mockRoom, len(m.rooms))
	for k, v := range m.rooms {
		rooms[k] = v
	}
	bills := make(map[int64]mockBill, len(m.bills))
	for k, v := range m.bills {
		bills[k] = v
	}
	next := m.nextBillID
	return func() {
		m.rooms, m.bills, m.nextBillID = rooms, bills, next
	}
}

func (m *mockRepo) LockRoom(_ context.Context, _ db.Querier, roomID string) (*LockedRoom, error) {
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return &LockedRoom{ID: roomID, WardID: r.wardID, Availability: r.avail}, nil
}

func (m *mockRepo) Occupy(_ context.Context, _ db.Querier, roomID string, patientID int64) error {
	r := m.rooms[roomID]
	r.avail = Unavailable
	r.occupant = &patientID
	m.rooms[roomID] = r
	return nil
}

func (m *mockRepo) InsertBill(_ context.Context, _ db.Querier, b NewBill) (int64, error) {
	if m.insertBillErr != nil {
		return 0, m.insertBillErr
	}
	m.nextBillID++
	roomID := b.RoomID
	m.bills[m.nextBillID] = mockBill{
		Bill:      Bill{ID: m.nextBillID, RoomID: &roomID, Item: b.Item, Amount: b.Amount, PaymentStatus: PaymentPending, DateIssued: "2025-01-10"},
		patientID: b.PatientID,
	}
	return m.nextBillID, nil
}

func (m *mockRepo) Release(_ context.Context, _ db.Querier, roomID string, patientID int64) (bool, error) {
	r, ok := m.rooms[roomID]
	if !ok || r.occupant == nil || *r.occupant != patientID {
		return false, nil
	}
	r.avail = Available
	r.occupant = nil
	m.rooms[roomID] = r
	return true, nil
}

func (m *mockRepo) FindPendingBooking(_ context.Context, _ db.Querier, patientID int64, roomID string) (int64, bool, error) {
	var best int64
	for id, b := range m.bills {
		if b.patientID == patientID && b.RoomID != nil && *b.RoomID == roomID && b.PaymentStatus == PaymentPending && id > best {
			best = id
		}
	}
	return best, best != 0, nil
}

func (m *mockRepo) DeleteBill(_ context.Context, _ db.Querier, billID int64) (bool, error) {
	if m.deleteMisses {
		return false, nil
	}
	if _, ok := m.bills[billID]; !ok {
		return false, nil
	}
	delete(m.bills, billID)
	return true, nil
}

func (m *mockRepo) ListWards(context.Context) ([]Ward, error) {
	w := Ward{ID: 1, Name: "General", Rooms: []Room{}}
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := m.rooms[id]
		w.Rooms = append(w.Rooms, Room{ID: id, Type: r.typ, Availability: r.avail, PatientIDOccupying: r.occupant})
	}
	return []Ward{w}, nil
}

func (m *mockRepo) ListBills(_ context.Context, patientID int64) ([]Bill, error) {
	out := []Bill{}
	for _, b := range m.bills {
		if b.patientID == patientID {
			out = append(out, b.Bill)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type mockTx struct {
	repo   *mockRepo
	began  int
	rolled int
}

func (t *mockTx) WithTx(ctx context.Context, fn func(q db.Querier) error) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	t.began++
	restore := t.repo.snapshot()
	if err := fn(nil); err != nil {
		restore()
		t.rolled++
		return err
	}
	return nil
}

func setupService() (*Service, *mockRepo, *mockTx) {
	repo := newMockRepo()
	tx := &mockTx{repo: repo}
	return NewService(repo, tx, eventlog.Nop{}, zerolog.Nop()), repo, tx
}

func TestBookRoom_Success(t *testing.T) {
	svc, repo, _ := setupService()

	booking, err := svc.BookRoom(context.Background(), 1, "R101")
	require.NoError(t, err)
	assert.Equal(t, "R101", booking.RoomID)

	r := repo.rooms["R101"]
	assert.Equal(t, Unavailable, r.avail)
	require.NotNil(t, r.occupant)
	assert.Equal(t, int64(1), *r.occupant)

	bill := repo.bills[booking.BillID]
	assert.Equal(t, "Room Booking (R101 - Ward 1)", bill.Item)
	assert.Equal(t, 5000.00, bill.Amount)
	assert.Equal(t, PaymentPending, bill.PaymentStatus)
}

func TestBookRoom_Errors(t *testing.T) {
	svc, _, tx := setupService()

	_, err := svc.BookRoom(context.Background(), 0, "R101")
	assert.ErrorIs(t, err, ErrMissingFields)
	assert.Zero(t, tx.began)

	_, err = svc.BookRoom(context.Background(), 1, "R999")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestBookRoom_UnavailableLeavesStateUntouched(t *testing.T) {
	svc, repo, _ := setupService()

	first, err := svc.BookRoom(context.Background(), 1, "R101")
	require.NoError(t, err)

	_, err = svc.BookRoom(context.Background(), 2, "R101")
	require.ErrorIs(t, err, ErrRoomUnavailable)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	assert.Equal(t, int64(1), *repo.rooms["R101"].occupant)
	require.Len(t, repo.bills, 1)
	assert.Equal(t, int64(1), repo.bills[first.BillID].patientID)
}

func TestBookRoom_BillFailureRollsBackRoom(t *testing.T) {
	svc, repo, tx := setupService()
	repo.insertBillErr = errors.New("disk full")

	_, err := svc.BookRoom(context.Background(), 1, "R101")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, 1, tx.rolled)

	assert.Equal(t, Available, repo.rooms["R101"].avail)
	assert.Nil(t, repo.rooms["R101"].occupant)
	assert.Empty(t, repo.bills)
}

func TestBookThenCancel(t *testing.T) {
	svc, repo, _ := setupService()
	ctx := context.Background()

	booking, err := svc.BookRoom(ctx, 1, "R101")
	require.NoError(t, err)

	res, err := svc.CancelRoomBooking(ctx, "R101", 1)
	require.NoError(t, err)
	require.NotNil(t, res.BillID)
	assert.Equal(t, booking.BillID, *res.BillID)
	assert.Equal(t, "Room R101 booking successfully cancelled and pending bill removed.", res.Message())

	assert.Equal(t, Available, repo.rooms["R101"].avail)
	assert.Nil(t, repo.rooms["R101"].occupant)
	assert.Empty(t, repo.bills)

	_, err = svc.CancelRoomBooking(ctx, "R101", 1)
	require.ErrorIs(t, err, ErrNotOccupiedByPatient)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCancel_ByOtherPatientDoesNothing(t *testing.T) {
	svc, repo, _ := setupService()
	ctx := context.Background()

	_, err := svc.BookRoom(ctx, 1, "R101")
	require.NoError(t, err)

	_, err = svc.CancelRoomBooking(ctx, "R101", 2)
	require.ErrorIs(t, err, ErrNotOccupiedByPatient)

	assert.Equal(t, Unavailable, repo.rooms["R101"].avail)
	assert.Equal(t, int64(1), *repo.rooms["R101"].occupant)
	assert.Len(t, repo.bills, 1)
}

func TestCancel_WithoutPendingBill(t *testing.T) {
	svc, repo, _ := setupService()
	ctx := context.Background()

	booking, err := svc.BookRoom(ctx, 1, "R101")
	require.NoError(t, err)
	b := repo.bills[booking.BillID]
	b.PaymentStatus = PaymentPaid
	repo.bills[booking.BillID] = b

	res, err := svc.CancelRoomBooking(ctx, "R101", 1)
	require.NoError(t, err)
	assert.Nil(t, res.BillID)
	assert.Equal(t, "Room R101 booking successfully cancelled but no pending bill was found to remove.", res.Message())
	assert.Len(t, repo.bills, 1, "paid bills are kept")
}

func TestCancel_FailedBillDeleteRollsBack(t *testing.T) {
	svc, repo, tx := setupService()
	ctx := context.Background()

	_, err := svc.BookRoom(ctx, 1, "R101")
	require.NoError(t, err)
	repo.deleteMisses = true

	_, err = svc.CancelRoomBooking(ctx, "R101", 1)
	require.ErrorIs(t, err, ErrBillRemovalFailed)
	assert.Equal(t, 1, tx.rolled)

	assert.Equal(t, Unavailable, repo.rooms["R101"].avail, "room release is rolled back")
	assert.Len(t, repo.bills, 1)
}

func TestBookRoom_ConcurrentSingleWinner(t *testing.T) {
	svc, repo, _ := setupService()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for p := int64(1); p <= 10; p++ {
		wg.Add(1)
		go func(patientID int64) {
			defer wg.Done()
			_, err := svc.BookRoom(context.Background(), patientID, "R102")
			results <- err
		}(p)
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrRoomUnavailable)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, repo.bills, 1)
}

func TestListWardsAndBills(t *testing.T) {
	svc, _, _ := setupService()
	ctx := context.Background()

	_, err := svc.BookRoom(ctx, 1, "R101")
	require.NoError(t, err)

	wards, err := svc.ListWards(ctx)
	require.NoError(t, err)
	require.Len(t, wards, 1)
	require.Len(t, wards[0].Rooms, 2)
	assert.Equal(t, Unavailable, wards[0].Rooms[0].Availability)

	bills, err := svc.ListBills(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, bills, 1)

	none, err := svc.ListBills(ctx, 2)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
