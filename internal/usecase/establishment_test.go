//go:build unit

package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"spotwise/internal/coordinator"
	"spotwise/internal/domain/reservation"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/location"
	"spotwise/internal/occupancy"
	"spotwise/internal/pkg/errs"
	"spotwise/internal/stream"
	"spotwise/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type establishmentFixture struct {
	uc       usecase.EstablishmentUseCase
	memory   *docstore.Memory
	coord    *coordinator.Coordinator
	position *location.Store
}

func newEstablishmentFixture(t *testing.T) *establishmentFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	memory := docstore.NewMemory(log)
	coord := coordinator.New(
		stream.NewMultiplexer(memory, log),
		occupancy.NewTracker(),
		reservation.NewStore(),
		log,
	)
	t.Cleanup(coord.Stop)
	position := location.NewStore()
	return &establishmentFixture{
		uc:       usecase.NewEstablishmentUseCase(memory, coord, position, log),
		memory:   memory,
		coord:    coord,
		position: position,
	}
}

func TestListSkipsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	f := newEstablishmentFixture(t)

	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "e1", map[string]any{
		"managementName": "Acme Garage",
		"parkingPay":     50.0,
		"totalSlots":     3.0,
	}, false))
	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "e2", map[string]any{
		"note": "no management name, not a facility",
	}, false))

	list, err := f.uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme Garage", list[0].ManagementName)
}

func TestSlotsServesLiveViewForSessionFacility(t *testing.T) {
	ctx := context.Background()
	f := newEstablishmentFixture(t)

	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "e1", map[string]any{
		"managementName": "Acme Garage",
		"totalSlots":     2.0,
	}, false))
	require.NoError(t, f.coord.Start(ctx, "Acme Garage"))

	require.NoError(t, f.memory.Set(ctx, docstore.SlotDataCollection("Acme Garage"), "s0", map[string]any{
		"index":  0.0,
		"status": "Occupied",
	}, false))

	view, err := f.uc.Slots(ctx, "Acme Garage")
	require.NoError(t, err)
	require.Len(t, view.Floors, 1)
	require.Len(t, view.Floors[0].Slots, 2)
	assert.True(t, view.Floors[0].Slots[0].Occupied)
	assert.False(t, view.Floors[0].Slots[1].Occupied)
}

func TestSlotsFallsBackToOneShotFetch(t *testing.T) {
	ctx := context.Background()
	f := newEstablishmentFixture(t)

	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "e1", map[string]any{
		"managementName": "Riverside Lot",
		"totalSlots":     2.0,
	}, false))

	view, err := f.uc.Slots(ctx, "Riverside Lot")
	require.NoError(t, err)
	require.Len(t, view.Floors, 1)
	for _, s := range view.Floors[0].Slots {
		assert.False(t, s.Occupied)
	}
}

func TestSlotsUnknownFacility(t *testing.T) {
	ctx := context.Background()
	f := newEstablishmentFixture(t)

	_, err := f.uc.Slots(ctx, "Nowhere")
	assert.ErrorIs(t, err, errs.ErrFacilityNotFound)
}

func TestListSortsNearestFirst(t *testing.T) {
	ctx := context.Background()
	f := newEstablishmentFixture(t)

	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "far", map[string]any{
		"managementName": "North Terminal",
		"latitude":       10.40,
		"longitude":      123.95,
		"totalSlots":     2.0,
	}, false))
	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "near", map[string]any{
		"managementName": "City Hall Lot",
		"latitude":       10.18,
		"longitude":      123.55,
		"totalSlots":     2.0,
	}, false))
	require.NoError(t, f.memory.Set(ctx, docstore.CollEstablishments, "nowhere", map[string]any{
		"managementName": "Unsurveyed Lot",
		"totalSlots":     2.0,
	}, false))

	f.position.Set(location.Coordinates{Lat: 10.17, Lng: 123.54})

	list, err := f.uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "City Hall Lot", list[0].ManagementName)
	assert.Equal(t, "North Terminal", list[1].ManagementName)
	assert.Equal(t, "Unsurveyed Lot", list[2].ManagementName)
}
