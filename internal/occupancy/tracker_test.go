//go:build unit

package occupancy_test

import (
	"testing"

	"spotwise/internal/domain/facility"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/occupancy"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acmeLayout(t *testing.T) facility.Facility {
	t.Helper()
	f, err := facility.Parse(map[string]any{
		"managementName": "Acme Garage",
		"parkingPay":     50.0,
		"floorDetails": []any{
			map[string]any{"floorName": "A", "parkingLots": 3.0},
			map[string]any{"floorName": "B", "parkingLots": 2.0},
		},
	})
	require.NoError(t, err)
	return f
}

func slotDoc(floor string, index int, status string) docstore.Document {
	return docstore.Document{ID: floor + "-" + string(rune('0'+index)), Fields: map[string]any{
		"floor": floor, "index": float64(index), "status": status,
	}}
}

func TestSlotFeedMarksCombinedID(t *testing.T) {
	tr := occupancy.NewTracker()
	tr.ApplyLayout(acmeLayout(t))

	tr.ApplySlotSnapshot([]docstore.Document{slotDoc("A", 2, "Occupied")})

	view, ok := tr.Snapshot()
	require.True(t, ok)

	// Slot A-2 is facility-wide number 2; every other slot stays vacant.
	for _, fl := range view.Floors {
		for _, s := range fl.Slots {
			assert.Equal(t, s.SlotNumber == 2, s.Occupied, "slot %s", s.ID)
		}
	}
	assert.True(t, tr.SlotOccupied(2))
	assert.False(t, tr.SlotOccupied(1))
}

func TestFlatPoolLayout(t *testing.T) {
	tr := occupancy.NewTracker()
	f, err := facility.Parse(map[string]any{
		"managementName": "Acme Garage",
		"totalSlots":     3.0,
	})
	require.NoError(t, err)
	tr.ApplyLayout(f)

	view, ok := tr.Snapshot()
	require.True(t, ok)
	require.Len(t, view.Floors, 1)
	assert.Equal(t, facility.GeneralFloorTitle, view.Floors[0].Title)
	require.Len(t, view.Floors[0].Slots, 3)
	for i, s := range view.Floors[0].Slots {
		assert.Equal(t, i+1, s.SlotNumber)
		assert.False(t, s.Occupied)
	}
}

func TestReservationFeedKeyVariants(t *testing.T) {
	tr := occupancy.NewTracker()
	tr.ApplyLayout(acmeLayout(t))

	t.Run("general-pool key", func(t *testing.T) {
		tr.ApplyReservationSnapshot([]docstore.Document{
			{ID: "r1", Fields: map[string]any{"slotId": "General Parking_4", "status": "Occupied"}},
		})
		assert.True(t, tr.SlotOccupied(4)) // B floor, first slot
		assert.False(t, tr.SlotOccupied(3))
	})

	t.Run("lowercased floor key", func(t *testing.T) {
		tr.ApplyReservationSnapshot([]docstore.Document{
			{ID: "r1", Fields: map[string]any{"slotId": "b_5", "status": "Occupied"}},
		})
		assert.True(t, tr.SlotOccupied(5))
		assert.False(t, tr.SlotOccupied(4)) // previous snapshot fully replaced
	})
}

func TestSnapshotReplacesNotMerges(t *testing.T) {
	tr := occupancy.NewTracker()
	tr.ApplyLayout(acmeLayout(t))

	tr.ApplySlotSnapshot([]docstore.Document{slotDoc("A", 1, "Occupied")})
	require.True(t, tr.SlotOccupied(1))

	// The next snapshot omits A-1: the slot must read vacant again.
	tr.ApplySlotSnapshot([]docstore.Document{slotDoc("B", 1, "Occupied")})
	assert.False(t, tr.SlotOccupied(1))
	assert.True(t, tr.SlotOccupied(4))

	tr.ApplySlotSnapshot(nil)
	assert.False(t, tr.SlotOccupied(4))
}

func TestRepublishFreshViews(t *testing.T) {
	tr := occupancy.NewTracker()

	var views []facility.Facility
	cancel := tr.Watch(func(f facility.Facility) { views = append(views, f) })
	defer cancel()

	tr.ApplyLayout(acmeLayout(t))
	tr.ApplySlotSnapshot([]docstore.Document{slotDoc("A", 1, "Occupied")})

	require.Len(t, views, 2)
	assert.False(t, views[0].Floors[0].Slots[0].Occupied)
	assert.True(t, views[1].Floors[0].Slots[0].Occupied)

	// Each view is a distinct slice, not a mutation of the previous one.
	if diff := cmp.Diff(views[0], views[1]); diff == "" {
		t.Fatal("expected recomputation to produce a different view")
	}
	views[1].Floors[0].Slots[0].Occupied = false
	current, _ := tr.Snapshot()
	assert.True(t, current.Floors[0].Slots[0].Occupied)
}

func TestLayoutReshapeDropsStaleKeys(t *testing.T) {
	tr := occupancy.NewTracker()
	tr.ApplyLayout(acmeLayout(t))
	tr.ApplySlotSnapshot([]docstore.Document{slotDoc("B", 2, "Occupied")})
	require.True(t, tr.SlotOccupied(5))

	// Shrink to a single floor: the B key no longer resolves, which is
	// tolerated silently.
	smaller, err := facility.Parse(map[string]any{
		"managementName": "Acme Garage",
		"floorDetails": []any{
			map[string]any{"floorName": "A", "parkingLots": 2.0},
		},
	})
	require.NoError(t, err)
	tr.ApplyLayout(smaller)

	view, ok := tr.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 2, view.TotalSlots())
	for _, s := range view.Floors[0].Slots {
		assert.False(t, s.Occupied)
	}
}

func TestWatchCancelIdempotent(t *testing.T) {
	tr := occupancy.NewTracker()
	calls := 0
	cancel := tr.Watch(func(facility.Facility) { calls++ })

	cancel()
	cancel()

	tr.ApplyLayout(acmeLayout(t))
	assert.Equal(t, 0, calls)
}
