package facility

import (
	"strconv"

	"spotwise/internal/pkg/errs"
)

// GeneralFloorTitle is the synthetic floor a flat totalSlots pool collapses
// into.
const GeneralFloorTitle = "General Parking"

type Slot struct {
	ID         string `json:"id"`
	Floor      string `json:"floor"`
	SlotNumber int    `json:"slotNumber"`
	Occupied   bool   `json:"occupied"`
}

type Floor struct {
	Title string `json:"title"`
	Slots []Slot `json:"slots"`
}

// Facility is a parsed establishment document: a name, the reservation fee,
// and the floor layout. Slot numbering is one running counter across all
// floors regardless of floor boundaries.
type Facility struct {
	ManagementName string  `json:"managementName"`
	ParkingPay     float64 `json:"parkingPay"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Floors         []Floor `json:"floors"`
}

// HasCoordinates reports whether the establishment document carried a
// position. (0,0) is open ocean, not a parking lot.
func (f Facility) HasCoordinates() bool {
	return f.Latitude != 0 || f.Longitude != 0
}

func (f Facility) TotalSlots() int {
	n := 0
	for _, fl := range f.Floors {
		n += len(fl.Slots)
	}
	return n
}

// Clone deep-copies the floor layout so callers can hand the value out
// without sharing slice backing with their own state.
func (f Facility) Clone() Facility {
	out := f
	out.Floors = make([]Floor, len(f.Floors))
	for i, fl := range f.Floors {
		out.Floors[i] = Floor{Title: fl.Title, Slots: append([]Slot(nil), fl.Slots...)}
	}
	return out
}

// FindSlot locates a slot by its facility-wide number.
func (f Facility) FindSlot(slotNumber int) (Slot, bool) {
	for _, fl := range f.Floors {
		for _, s := range fl.Slots {
			if s.SlotNumber == slotNumber {
				return s, true
			}
		}
	}
	return Slot{}, false
}

// Parse builds a Facility from a raw establishment document. Layout comes
// either from an explicit floorDetails list or from a flat totalSlots count
// collapsed into one General Parking floor. A document with neither yields
// an empty layout, not an error: establishments are allowed to exist before
// their floors are configured.
func Parse(fields map[string]any) (Facility, error) {
	name, _ := fields["managementName"].(string)
	if name == "" {
		return Facility{}, errs.New("establishment document missing managementName")
	}

	f := Facility{
		ManagementName: name,
		ParkingPay:     toFloat(fields["parkingPay"]),
		Latitude:       toFloat(fields["latitude"]),
		Longitude:      toFloat(fields["longitude"]),
	}

	counter := 0
	if details, ok := fields["floorDetails"].([]any); ok && len(details) > 0 {
		for _, raw := range details {
			floor, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			title, _ := floor["floorName"].(string)
			count := toInt(floor["parkingLots"])
			if title == "" || count <= 0 {
				continue
			}
			slots := make([]Slot, 0, count)
			for i := 0; i < count; i++ {
				counter++
				slots = append(slots, Slot{
					ID:         title + "-" + strconv.Itoa(i+1),
					Floor:      title,
					SlotNumber: counter,
				})
			}
			f.Floors = append(f.Floors, Floor{Title: title, Slots: slots})
		}
		return f, nil
	}

	// Flat pools keep the feed's zero-based index as the slot id, while
	// floor slots carry the operator-facing one-based "Title-N" name.
	// Both schemes are wire contracts with the slot feed; SlotNumber is
	// the one canonical identifier for everything above this layer.
	if total := toInt(fields["totalSlots"]); total > 0 {
		slots := make([]Slot, 0, total)
		for i := 0; i < total; i++ {
			counter++
			slots = append(slots, Slot{
				ID:         strconv.Itoa(i),
				Floor:      GeneralFloorTitle,
				SlotNumber: counter,
			})
		}
		f.Floors = []Floor{{Title: GeneralFloorTitle, Slots: slots}}
	}

	return f, nil
}

// Feeds are JSON-shaped, so numerics arrive as float64, but operator tooling
// has historically written counts as strings too.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
