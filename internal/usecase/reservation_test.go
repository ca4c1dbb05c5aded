//go:build unit

package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"spotwise/internal/coordinator"
	"spotwise/internal/domain/reservation"
	"spotwise/internal/infra/blob"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/infra/notify"
	"spotwise/internal/occupancy"
	"spotwise/internal/pkg/clock"
	"spotwise/internal/pkg/errs"
	"spotwise/internal/stream"
	"spotwise/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFacility = "Acme Garage"
	testEmail    = "driver@example.com"
)

type fixture struct {
	uc       usecase.ReservationUseCase
	coord    *coordinator.Coordinator
	memory   *docstore.Memory
	blob     *blob.Memory
	registry *notify.MemoryRegistry
	clock    *clock.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	memory := docstore.NewMemory(log)
	require.NoError(t, memory.Set(ctx, docstore.CollEstablishments, "e1", map[string]any{
		"managementName": testFacility,
		"parkingPay":     50.0,
		"totalSlots":     3.0,
	}, false))

	coord := coordinator.New(
		stream.NewMultiplexer(memory, log),
		occupancy.NewTracker(),
		reservation.NewStore(),
		log,
	)
	require.NoError(t, coord.Start(ctx, testFacility))
	t.Cleanup(coord.Stop)

	uploads := blob.NewMemory()
	registry := notify.NewMemoryRegistry()
	mock := clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return &fixture{
		uc:       usecase.NewReservationUseCase(coord, memory, uploads, registry, mock, log),
		coord:    coord,
		memory:   memory,
		blob:     uploads,
		registry: registry,
		clock:    mock,
	}
}

func TestReservePersistsSlotDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	snap, err := f.uc.Reserve(ctx, testEmail, testFacility, 2)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusPending, snap.Status)
	assert.Len(t, snap.ReservationID, 20)

	docs, err := f.memory.Query(ctx, docstore.CollReservations)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "slot_General Parking_2", docs[0].ID)
	assert.Equal(t, testEmail, docs[0].String("email"))
	assert.Equal(t, "Pending", docs[0].String("status"))
	assert.Equal(t, "2025-06-01T12:00:00Z", docs[0].String("reservedAt"))
}

func TestReserveRejectsUnknownSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.uc.Reserve(ctx, testEmail, testFacility, 9)
	require.ErrorIs(t, err, errs.ErrUnknownSlot)
	assert.True(t, f.uc.Current(ctx).IsInactive())
}

func TestReserveRejectsOccupiedSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// The slot feed marks flat-pool slot 2 (zero-based key "1") occupied.
	require.NoError(t, f.memory.Set(ctx, docstore.SlotDataCollection(testFacility), "1", map[string]any{
		"index": 1.0, "status": "Occupied",
	}, false))
	require.True(t, f.coord.Tracker().SlotOccupied(2))

	_, err := f.uc.Reserve(ctx, testEmail, testFacility, 2)
	require.ErrorIs(t, err, errs.ErrSlotOccupied)
	assert.True(t, f.uc.Current(ctx).IsInactive())
}

func TestReserveRejectsSecondReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.uc.Reserve(ctx, testEmail, testFacility, 1)
	require.NoError(t, err)

	_, err = f.uc.Reserve(ctx, testEmail, testFacility, 2)
	require.ErrorIs(t, err, errs.ErrReservationExists)
	assert.Equal(t, first.ReservationID, f.uc.Current(ctx).ReservationID)
}

func TestCancelRemovesDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.uc.Reserve(ctx, testEmail, testFacility, 1)
	require.NoError(t, err)

	require.NoError(t, f.uc.Cancel(ctx, testEmail))
	assert.True(t, f.uc.Current(ctx).IsInactive())

	docs, err := f.memory.Query(ctx, docstore.CollReservations)
	require.NoError(t, err)
	assert.Empty(t, docs)

	notes, err := f.memory.Query(ctx, docstore.CollNotifications,
		docstore.Where("email", docstore.OpEqual, testEmail))
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestCancelRejectedWhileSlotOccupied(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	snap, err := f.uc.Reserve(ctx, testEmail, testFacility, 2)
	require.NoError(t, err)

	require.NoError(t, f.memory.Set(ctx, docstore.SlotDataCollection(testFacility), "1", map[string]any{
		"index": 1.0, "status": "Occupied",
	}, false))

	err = f.uc.Cancel(ctx, testEmail)
	require.ErrorIs(t, err, errs.ErrSlotOccupied)
	assert.Equal(t, snap.ReservationID, f.uc.Current(ctx).ReservationID)
}

func TestSubmitPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	snap, err := f.uc.Reserve(ctx, testEmail, testFacility, 1)
	require.NoError(t, err)

	// Operator accepts through the status feed.
	require.NoError(t, f.memory.Set(ctx, docstore.CollResStatus, "s1", map[string]any{
		"reservationId": snap.ReservationID,
		"resStatus":     "Accepted",
	}, false))
	require.Equal(t, reservation.StatusAccepted, f.uc.Current(ctx).Status)

	paid, err := f.uc.SubmitPayment(ctx, testEmail, []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusPaid, paid.Status)
	assert.Equal(t, "mem://payments/"+snap.ReservationID+".jpg", paid.ImageURI)

	_, stored := f.blob.Object("payments/" + snap.ReservationID + ".jpg")
	assert.True(t, stored)

	docs, err := f.memory.Query(ctx, docstore.CollReservations)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Paid", docs[0].String("status"))
}

func TestSubmitPaymentUploadFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	snap, err := f.uc.Reserve(ctx, testEmail, testFacility, 1)
	require.NoError(t, err)
	require.NoError(t, f.memory.Set(ctx, docstore.CollResStatus, "s1", map[string]any{
		"reservationId": snap.ReservationID,
		"resStatus":     "Accepted",
	}, false))

	f.blob.FailWith(assert.AnError)
	_, err = f.uc.SubmitPayment(ctx, testEmail, []byte("jpeg-bytes"))
	// The sentinel rides as a mark on the upload error, so it is matched
	// through errs.Is rather than the standard library.
	require.True(t, errs.Is(err, errs.ErrUploadFailed))
	require.True(t, errs.Is(err, assert.AnError))

	current := f.uc.Current(ctx)
	assert.Equal(t, reservation.StatusAccepted, current.Status)
	assert.Empty(t, current.ImageURI)
}

func TestSubmitPaymentWithoutReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.uc.SubmitPayment(ctx, testEmail, []byte("jpeg-bytes"))
	require.ErrorIs(t, err, errs.ErrReservationNotFound)
}

func TestReserveSwitchesFacilitySession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "e2", map[string]any{
		"managementName": "Harbor Deck",
		"parkingPay":     80.0,
		"totalSlots":     2.0,
	}, false))

	snap, err := f.uc.Reserve(ctx, testEmail, "Harbor Deck", 1)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Deck", snap.ManagementName)
	assert.Equal(t, 80.0, snap.ParkingPay)
	assert.Equal(t, "Harbor Deck", f.coord.Facility())
}

func TestReserveUnknownFacility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.uc.Reserve(ctx, testEmail, "No Such Garage", 1)
	require.ErrorIs(t, err, errs.ErrFacilityNotFound)
	assert.True(t, f.uc.Current(ctx).IsInactive())
}

func TestCancelInvalidatesUnreadCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.uc.Reserve(ctx, testEmail, testFacility, 1)
	require.NoError(t, err)
	require.Zero(t, f.registry.Invalidations(testEmail))

	require.NoError(t, f.uc.Cancel(ctx, testEmail))
	assert.Equal(t, 1, f.registry.Invalidations(testEmail))
}
