package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spotwise/internal/coordinator"
	"spotwise/internal/domain/reservation"
	"spotwise/internal/infra/blob"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/pkg/clock"
	"spotwise/internal/pkg/errs"
)

type ReservationUseCase interface {
	// Reserve claims slotNumber at the named facility for the given user,
	// repointing the coordinator session there first when it is elsewhere.
	// The committed snapshot is returned.
	Reserve(ctx context.Context, email, facilityName string, slotNumber int) (reservation.Snapshot, error)

	// Cancel clears the user's reservation unless the slot is physically
	// occupied.
	Cancel(ctx context.Context, email string) error

	Current(ctx context.Context) reservation.Snapshot

	// SubmitPayment uploads the proof-of-payment image and marks the
	// reservation Paid. The reservation is untouched when the upload
	// fails.
	SubmitPayment(ctx context.Context, email string, image []byte) (reservation.Snapshot, error)
}

type reservationUseCaseImpl struct {
	coord    *coordinator.Coordinator
	store    docstore.Store
	uploader blob.Uploader
	counter  UnreadCounter
	clock    clock.Clock
	log      *slog.Logger
}

func NewReservationUseCase(coord *coordinator.Coordinator, store docstore.Store, uploader blob.Uploader, counter UnreadCounter, clk clock.Clock, log *slog.Logger) ReservationUseCase {
	return &reservationUseCaseImpl{
		coord:    coord,
		store:    store,
		uploader: uploader,
		counter:  counter,
		clock:    clk,
		log:      log,
	}
}

// reservationDocID mirrors the dashboard's expectation: one document per
// physical slot, addressed by floor and slot number.
func reservationDocID(snap reservation.Snapshot) string {
	return fmt.Sprintf("slot_%s_%d", snap.FloorTitle, snap.SlotNumber)
}

func (r *reservationUseCaseImpl) Reserve(ctx context.Context, email, facilityName string, slotNumber int) (reservation.Snapshot, error) {
	if r.coord.Facility() != facilityName {
		if err := r.coord.Start(ctx, facilityName); err != nil {
			return reservation.Snapshot{}, errs.Wrap(err, "failed to open facility session")
		}
	}

	// A session on a facility that has no establishment document leaves
	// the tracker on the old layout, so the name check below catches it.
	view, ok := r.coord.Tracker().Snapshot()
	if !ok || view.ManagementName != facilityName {
		return reservation.Snapshot{}, errs.ErrFacilityNotFound
	}
	slot, found := view.FindSlot(slotNumber)
	if !found {
		return reservation.Snapshot{}, errs.ErrUnknownSlot
	}

	// Occupancy is read here, at action time, so the transform judges the
	// freshest view rather than one captured at subscription setup.
	snap, err := r.coord.Store().Apply(reservation.Reserve(reservation.SlotRef{
		ManagementName: view.ManagementName,
		FloorTitle:     slot.Floor,
		SlotNumber:     slot.SlotNumber,
		ParkingPay:     view.ParkingPay,
	}, slot.Occupied))
	if err != nil {
		return reservation.Snapshot{}, err
	}

	fields := map[string]any{
		"reservationId":  snap.ReservationID,
		"email":          email,
		"status":         snap.Status.String(),
		"managementName": snap.ManagementName,
		"floorTitle":     snap.FloorTitle,
		"slotNumber":     snap.SlotNumber,
		"parkingPay":     snap.ParkingPay,
		"reservedAt":     r.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := r.store.Set(ctx, docstore.CollReservations, reservationDocID(snap), fields, true); err != nil {
		// Roll the local state back so a failed remote write does not
		// leave a reservation the operator will never see.
		if _, revertErr := r.coord.Store().Apply(reservation.Cancel(false)); revertErr != nil {
			r.log.Error("failed to revert reservation after store failure",
				slog.String("reservationId", snap.ReservationID),
				slog.String("error", revertErr.Error()))
		}
		return reservation.Snapshot{}, errs.Mark(err, errs.ErrStoreOperationFailed)
	}

	return snap, nil
}

func (r *reservationUseCaseImpl) Cancel(ctx context.Context, email string) error {
	prev := r.coord.Store().Current()

	occupied := false
	if prev.SlotNumber > 0 {
		occupied = r.coord.Tracker().SlotOccupied(prev.SlotNumber)
	}
	if _, err := r.coord.Store().Apply(reservation.Cancel(occupied)); err != nil {
		return err
	}

	if err := r.store.Delete(ctx, docstore.CollReservations, reservationDocID(prev)); err != nil {
		r.log.Warn("failed to delete reservation document",
			slog.String("reservationId", prev.ReservationID),
			slog.String("error", err.Error()))
	}
	r.notifyUser(ctx, email, "Your reservation has been cancelled.")
	return nil
}

func (r *reservationUseCaseImpl) Current(context.Context) reservation.Snapshot {
	return r.coord.Store().Current()
}

func (r *reservationUseCaseImpl) SubmitPayment(ctx context.Context, email string, image []byte) (reservation.Snapshot, error) {
	cur := r.coord.Store().Current()
	if cur.IsInactive() {
		return reservation.Snapshot{}, errs.ErrReservationNotFound
	}

	url, err := r.uploader.Upload(ctx, image, "payments/"+cur.ReservationID+".jpg")
	if err != nil {
		return reservation.Snapshot{}, errs.Mark(err, errs.ErrUploadFailed)
	}

	snap, err := r.coord.Store().Apply(reservation.MarkPaid(url))
	if err != nil {
		return reservation.Snapshot{}, err
	}

	if err := r.store.Set(ctx, docstore.CollReservations, reservationDocID(snap), map[string]any{
		"status":   snap.Status.String(),
		"imageUri": snap.ImageURI,
		"paidAt":   r.clock.Now().UTC().Format(time.RFC3339),
	}, true); err != nil {
		r.log.Warn("failed to persist payment status",
			slog.String("reservationId", snap.ReservationID),
			slog.String("error", err.Error()))
	}
	r.notifyUser(ctx, email, "Proof of payment submitted.")
	return snap, nil
}

// notifyUser appends to the notifications collection and drops the
// user's cached unread count so the badge reflects the new row before
// the TTL runs out. Best-effort: the reservation flow never fails over
// a missing notification row.
func (r *reservationUseCaseImpl) notifyUser(ctx context.Context, email, message string) {
	if _, err := r.store.Add(ctx, docstore.CollNotifications, map[string]any{
		"email":     email,
		"message":   message,
		"seen":      false,
		"createdAt": r.clock.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		r.log.Warn("failed to append notification",
			slog.String("email", email),
			slog.String("error", err.Error()))
		return
	}
	r.counter.Invalidate(ctx, email)
}
