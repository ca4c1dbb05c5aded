package reservation

import "spotwise/internal/pkg/errs"

// Snapshot is the full reservation state published to watchers. It is a
// value: every commit produces a fresh copy, never a shared mutable struct.
type Snapshot struct {
	ReservationID  string  `json:"reservationId"`
	Status         Status  `json:"status"`
	ManagementName string  `json:"managementName"`
	FloorTitle     string  `json:"floorTitle"`
	SlotNumber     int     `json:"slotNumber"`
	ParkingPay     float64 `json:"parkingPay"`
	ImageURI       string  `json:"imageUri,omitempty"`
}

// Inactive is the sentinel state: no id, no slot fields.
func Inactive() Snapshot {
	return Snapshot{Status: StatusInactive}
}

func (s Snapshot) IsInactive() bool {
	return s.Status == StatusInactive
}

// Matches reports whether an inbound feed event refers to this snapshot's
// reservation. Events for any other id are stale and must be ignored.
func (s Snapshot) Matches(reservationID string) bool {
	return s.ReservationID != "" && s.ReservationID == reservationID
}

// checkInvariant enforces: status == Inactive ⇔ reservationId == "" ⇔ no
// slot fields set. Every commit runs through this; a violation means a
// transform is broken, not that input data was bad.
func (s Snapshot) checkInvariant() error {
	empty := s.ReservationID == "" &&
		s.ManagementName == "" &&
		s.FloorTitle == "" &&
		s.SlotNumber == 0 &&
		s.ParkingPay == 0 &&
		s.ImageURI == ""

	if s.Status == StatusInactive && !empty {
		return errs.New("inactive snapshot carries reservation fields")
	}
	if s.Status != StatusInactive && s.ReservationID == "" {
		return errs.New("non-inactive snapshot missing reservation id")
	}
	if !s.Status.IsValid() {
		return errs.New("unknown reservation status " + s.Status.String())
	}
	return nil
}
