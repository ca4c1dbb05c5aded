package reservation

import (
	"spotwise/internal/pkg/errs"
	"spotwise/internal/pkg/ident"
)

// Transform is a pure transition function. The store applies it atomically
// against the latest committed snapshot, which is what keeps concurrent feed
// callbacks from clobbering each other with stale reads.
type Transform func(Snapshot) (Snapshot, error)

// SlotRef identifies the slot being reserved within a facility.
type SlotRef struct {
	ManagementName string
	FloorTitle     string
	SlotNumber     int
	ParkingPay     float64
}

// Reserve starts a reservation: Inactive → Pending with a fresh id. The
// occupied flag is the tracker's current view of the target slot; callers
// must read it at call time, not at subscription-setup time.
func Reserve(slot SlotRef, occupied bool) Transform {
	return func(cur Snapshot) (Snapshot, error) {
		if slot.SlotNumber <= 0 {
			return cur, errs.ErrNoSlotSelected
		}
		if cur.Status.IsSettled() {
			return cur, errs.ErrReservationExists
		}
		if occupied {
			return cur, errs.ErrSlotOccupied
		}
		return Snapshot{
			ReservationID:  ident.New(),
			Status:         StatusPending,
			ManagementName: slot.ManagementName,
			FloorTitle:     slot.FloorTitle,
			SlotNumber:     slot.SlotNumber,
			ParkingPay:     slot.ParkingPay,
		}, nil
	}
}

// ConfirmOccupied moves Accepted → Active once the occupancy feed shows the
// reserved slot held by this reservation id.
func ConfirmOccupied(reservationID string) Transform {
	return func(cur Snapshot) (Snapshot, error) {
		if !cur.Matches(reservationID) || cur.Status != StatusAccepted {
			return cur, nil
		}
		next := cur
		next.Status = StatusActive
		return next, nil
	}
}

// AutoExit clears an Active reservation when the filtered occupancy feed
// goes empty, meaning the vehicle has left the slot.
func AutoExit(reservationID string) Transform {
	return func(cur Snapshot) (Snapshot, error) {
		if !cur.Matches(reservationID) || cur.Status != StatusActive {
			return cur, nil
		}
		return Inactive(), nil
	}
}

// MarkPaid records the proof-of-payment upload. The reservation id is
// deliberately untouched.
func MarkPaid(imageURI string) Transform {
	return func(cur Snapshot) (Snapshot, error) {
		if cur.Status != StatusAccepted && cur.Status != StatusActive {
			return cur, errs.ErrInvalidTransition
		}
		next := cur
		next.Status = StatusPaid
		next.ImageURI = imageURI
		return next, nil
	}
}

// Cancel is the explicit user cancellation. It is rejected outright while
// the slot is physically occupied.
func Cancel(slotOccupied bool) Transform {
	return func(cur Snapshot) (Snapshot, error) {
		if !cur.Status.IsSettled() {
			return cur, errs.ErrReservationNotFound
		}
		if slotOccupied {
			return cur, errs.ErrSlotOccupied
		}
		return Inactive(), nil
	}
}
