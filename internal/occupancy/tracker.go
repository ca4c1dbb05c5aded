// Package occupancy reconciles the per-slot status feed and the
// reservation status feed into one occupied/vacant view of a facility.
package occupancy

import (
	"strconv"
	"strings"
	"sync"

	"spotwise/internal/domain/facility"
	"spotwise/internal/infra/docstore"
)

const occupiedStatus = "Occupied"

// Tracker holds the latest snapshot of each feed and recomputes the
// occupancy projection whenever either one changes. Feeds are
// snapshot-based: every update replaces its whole mapping, so removals
// on the server side clear occupancy here too.
type Tracker struct {
	mu         sync.Mutex
	layout     facility.Facility
	hasLayout  bool
	slotStatus map[string]string // "<floor>-<index>" -> status
	resStatus  map[string]string // slotId -> status
	view       facility.Facility

	watchMu  sync.Mutex
	watchers map[int]func(facility.Facility)
	nextID   int
}

func NewTracker() *Tracker {
	return &Tracker{
		slotStatus: make(map[string]string),
		resStatus:  make(map[string]string),
		watchers:   make(map[int]func(facility.Facility)),
	}
}

// ApplyLayout installs the facility shape the occupancy is projected
// onto. Reapplying with a different shape drops occupancy keys that no
// longer resolve to a slot; the feeds repopulate on their next update.
func (t *Tracker) ApplyLayout(f facility.Facility) {
	t.mu.Lock()
	t.layout = f
	t.hasLayout = true
	view, watchers := t.recomputeLocked()
	t.mu.Unlock()
	publish(watchers, view)
}

// ApplySlotSnapshot replaces the slot-status mapping with the given
// feed snapshot. Documents carry floor, index and status fields; a
// missing floor means a flat pool keyed by index alone.
func (t *Tracker) ApplySlotSnapshot(docs []docstore.Document) {
	next := make(map[string]string, len(docs))
	for _, d := range docs {
		next[slotFeedKey(d.String("floor"), d.Int("index"))] = d.String("status")
	}

	t.mu.Lock()
	t.slotStatus = next
	view, watchers := t.recomputeLocked()
	t.mu.Unlock()
	publish(watchers, view)
}

// ApplyReservationSnapshot replaces the reservation-status mapping with
// the given feed snapshot, keyed by the documents' slotId field.
func (t *Tracker) ApplyReservationSnapshot(docs []docstore.Document) {
	next := make(map[string]string, len(docs))
	for _, d := range docs {
		next[d.String("slotId")] = d.String("status")
	}

	t.mu.Lock()
	t.resStatus = next
	view, watchers := t.recomputeLocked()
	t.mu.Unlock()
	publish(watchers, view)
}

// Snapshot returns the current occupancy view. ok is false until a
// layout has been applied.
func (t *Tracker) Snapshot() (facility.Facility, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasLayout {
		return facility.Facility{}, false
	}
	return t.view.Clone(), true
}

// SlotOccupied reports whether the slot with the given facility-wide
// number is currently occupied. Unknown slots read as vacant.
func (t *Tracker) SlotOccupied(slotNumber int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.view.FindSlot(slotNumber)
	return ok && s.Occupied
}

// Watch registers a callback invoked with every recomputed view. The
// returned cancel is idempotent.
func (t *Tracker) Watch(fn func(facility.Facility)) docstore.CancelFunc {
	t.watchMu.Lock()
	id := t.nextID
	t.nextID++
	t.watchers[id] = fn
	t.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.watchMu.Lock()
			delete(t.watchers, id)
			t.watchMu.Unlock()
		})
	}
}

// recomputeLocked projects both status mappings onto the current layout
// and rebuilds the view with fresh slices so downstream identity checks
// see every recomputation as a new value. Keys that resolve to no slot
// in the current shape are dropped silently.
func (t *Tracker) recomputeLocked() (facility.Facility, []func(facility.Facility)) {
	if !t.hasLayout {
		return facility.Facility{}, nil
	}

	view := facility.Facility{
		ManagementName: t.layout.ManagementName,
		ParkingPay:     t.layout.ParkingPay,
		Latitude:       t.layout.Latitude,
		Longitude:      t.layout.Longitude,
		Floors:         make([]facility.Floor, 0, len(t.layout.Floors)),
	}
	for _, fl := range t.layout.Floors {
		slots := make([]facility.Slot, 0, len(fl.Slots))
		for _, s := range fl.Slots {
			s.Occupied = t.occupiedLocked(fl.Title, s)
			slots = append(slots, s)
		}
		view.Floors = append(view.Floors, facility.Floor{Title: fl.Title, Slots: slots})
	}
	t.view = view

	t.watchMu.Lock()
	watchers := make([]func(facility.Facility), 0, len(t.watchers))
	for _, fn := range t.watchers {
		watchers = append(watchers, fn)
	}
	t.watchMu.Unlock()
	return view, watchers
}

// occupiedLocked checks every key variant a slot may be known by. The
// slot feed keys by composite floor-index id, the reservation feed by
// slotId, which operators have written both as "General Parking_N" and
// as a lowercased floor-qualified name.
func (t *Tracker) occupiedLocked(floorTitle string, s facility.Slot) bool {
	if t.slotStatus[s.ID] == occupiedStatus {
		return true
	}
	if t.slotStatus[floorTitle+"-"+s.ID] == occupiedStatus {
		return true
	}
	n := strconv.Itoa(s.SlotNumber)
	if t.resStatus[facility.GeneralFloorTitle+"_"+n] == occupiedStatus {
		return true
	}
	return t.resStatus[strings.ToLower(floorTitle)+"_"+n] == occupiedStatus
}

func slotFeedKey(floor string, index int) string {
	if floor == "" {
		return strconv.Itoa(index)
	}
	return floor + "-" + strconv.Itoa(index)
}

func publish(watchers []func(facility.Facility), view facility.Facility) {
	for _, fn := range watchers {
		fn(view.Clone())
	}
}
