// Package coordinator wires the live document feeds of one facility into
// the occupancy tracker and the reservation store.
package coordinator

import (
	"context"
	"log/slog"
	"sync"

	"spotwise/internal/domain/facility"
	"spotwise/internal/domain/reservation"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/occupancy"
	"spotwise/internal/stream"
)

// Coordinator owns the subscription set of one facility session: the
// establishment layout feed, the two occupancy feeds, and the
// reservation-scoped feeds (status events and auto-exit detection) that
// follow the store's current reservation id. Start replaces any previous
// session, so repeated starts never stack listeners.
type Coordinator struct {
	mux     *stream.Multiplexer
	tracker *occupancy.Tracker
	store   *reservation.Store
	log     *slog.Logger

	mu          sync.Mutex
	facility    string
	cancels     []docstore.CancelFunc
	storeCancel func()

	resID      string
	resCancels []docstore.CancelFunc
}

func New(mux *stream.Multiplexer, tracker *occupancy.Tracker, store *reservation.Store, log *slog.Logger) *Coordinator {
	return &Coordinator{mux: mux, tracker: tracker, store: store, log: log}
}

func (c *Coordinator) Tracker() *occupancy.Tracker { return c.tracker }

// Facility returns the name of the facility the session is on, or ""
// when stopped.
func (c *Coordinator) Facility() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facility
}

func (c *Coordinator) Store() *reservation.Store { return c.store }

// Start opens the facility's feeds. Any previous session is torn down
// first.
func (c *Coordinator) Start(ctx context.Context, facilityName string) error {
	c.Stop()

	c.mu.Lock()
	c.facility = facilityName
	c.mu.Unlock()

	layoutCancel, err := c.mux.Subscribe(ctx, docstore.CollEstablishments,
		[]docstore.Condition{docstore.Where("managementName", docstore.OpEqual, facilityName)},
		c.onEstablishment)
	if err != nil {
		return err
	}

	slotCancel, err := c.mux.Subscribe(ctx, docstore.SlotDataCollection(facilityName), nil,
		func(r stream.Result) {
			if r.Tag == stream.Err {
				return
			}
			c.tracker.ApplySlotSnapshot(r.Records)
		})
	if err != nil {
		layoutCancel()
		return err
	}

	resCancel, err := c.mux.Subscribe(ctx, docstore.ResDataCollection(facilityName), nil,
		func(r stream.Result) {
			if r.Tag == stream.Err {
				return
			}
			c.tracker.ApplyReservationSnapshot(r.Records)
		})
	if err != nil {
		layoutCancel()
		slotCancel()
		return err
	}

	c.mu.Lock()
	c.cancels = []docstore.CancelFunc{layoutCancel, slotCancel, resCancel}
	c.mu.Unlock()

	// Follow the store's reservation id so the reservation-scoped feeds
	// always track the latest committed state, and wire them for any
	// reservation that already exists.
	storeCancel := c.store.Watch(func(snap reservation.Snapshot) {
		c.followReservation(ctx, snap)
	})
	c.mu.Lock()
	c.storeCancel = storeCancel
	c.mu.Unlock()
	c.followReservation(ctx, c.store.Current())

	return nil
}

// Stop tears down every live subscription of the session. Safe to call
// repeatedly and before any Start.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancels := c.cancels
	cancels = append(cancels, c.resCancels...)
	storeCancel := c.storeCancel
	c.cancels = nil
	c.resCancels = nil
	c.resID = ""
	c.storeCancel = nil
	c.facility = ""
	c.mu.Unlock()

	if storeCancel != nil {
		storeCancel()
	}
	for _, cancel := range cancels {
		cancel()
	}
}

func (c *Coordinator) onEstablishment(r stream.Result) {
	doc, ok := r.First()
	if !ok {
		return
	}
	f, err := facility.Parse(doc.Fields)
	if err != nil {
		c.log.Warn("skipping malformed establishment document",
			slog.String("id", doc.ID),
			slog.String("error", err.Error()))
		return
	}
	c.tracker.ApplyLayout(f)
}

// followReservation keeps the reservation-scoped subscriptions aligned
// with the store's current reservation id: open them when a reservation
// appears, replace them when the id changes, drop them when it clears.
func (c *Coordinator) followReservation(ctx context.Context, snap reservation.Snapshot) {
	c.mu.Lock()
	facilityName := c.facility
	if facilityName == "" || snap.ReservationID == c.resID {
		c.mu.Unlock()
		return
	}
	old := c.resCancels
	c.resCancels = nil
	c.resID = snap.ReservationID
	c.mu.Unlock()

	for _, cancel := range old {
		cancel()
	}
	if snap.ReservationID == "" {
		return
	}
	c.wireReservation(ctx, facilityName, snap.ReservationID)
}

func (c *Coordinator) wireReservation(ctx context.Context, facilityName, resID string) {
	statusCancel, err := c.mux.Subscribe(ctx, docstore.CollResStatus,
		[]docstore.Condition{docstore.Where("reservationId", docstore.OpEqual, resID)},
		func(r stream.Result) {
			if r.Tag != stream.Ok {
				return
			}
			for _, doc := range r.Records {
				c.store.HandleStatusEvent(reservation.StatusEvent{
					ReservationID: doc.String("reservationId"),
					ResStatus:     reservation.Status(doc.String("resStatus")),
					SlotID:        doc.Int("slotId"),
				})
			}
		})
	if err != nil {
		c.log.Error("failed to watch reservation status feed",
			slog.String("reservationId", resID),
			slog.String("error", err.Error()))
		return
	}

	// The slot feed filtered by reservation id drives both halves of the
	// occupancy handshake: a matching record confirms arrival, and the
	// set going empty afterwards means the vehicle has exited.
	exitCancel, err := c.mux.Subscribe(ctx, docstore.SlotDataCollection(facilityName),
		[]docstore.Condition{docstore.Where("reservationId", docstore.OpEqual, resID)},
		func(r stream.Result) {
			switch r.Tag {
			case stream.Ok:
				_, _ = c.store.Apply(reservation.ConfirmOccupied(resID))
			case stream.Empty:
				if snap, err := c.store.Apply(reservation.AutoExit(resID)); err == nil && snap.IsInactive() {
					c.log.Info("vehicle exit detected, reservation cleared",
						slog.String("reservationId", resID))
				}
			}
		})
	if err != nil {
		statusCancel()
		c.log.Error("failed to watch reservation slot feed",
			slog.String("reservationId", resID),
			slog.String("error", err.Error()))
		return
	}

	c.mu.Lock()
	stale := c.resID != resID
	if !stale {
		c.resCancels = []docstore.CancelFunc{statusCancel, exitCancel}
	}
	c.mu.Unlock()
	if stale {
		statusCancel()
		exitCancel()
	}
}
