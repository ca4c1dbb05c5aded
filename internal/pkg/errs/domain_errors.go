package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationExists   = errors.New("an active reservation already exists")
	ErrSlotOccupied        = errors.New("slot is currently occupied")
	ErrNoSlotSelected      = errors.New("no slot selected")
	ErrInvalidTransition   = errors.New("invalid reservation transition")

	// Facility errors
	ErrFacilityNotFound = errors.New("facility not found")
	ErrUnknownSlot      = errors.New("unknown slot")

	// Upload errors
	ErrUploadFailed = errors.New("proof-of-payment upload failed")

	// Operation errors
	ErrStoreOperationFailed = errors.New("document store operation failed")
)
