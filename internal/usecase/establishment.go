package usecase

import (
	"context"
	"log/slog"
	"sort"

	"spotwise/internal/coordinator"
	"spotwise/internal/domain/facility"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/location"
	"spotwise/internal/pkg/errs"
)

type EstablishmentUseCase interface {
	// List returns every parseable establishment, nearest to the current
	// position first. Establishments without coordinates sort last.
	List(ctx context.Context) ([]facility.Facility, error)

	// Slots returns the floor/slot view of one facility. When the
	// coordinator session is on that facility the live occupancy view is
	// served; otherwise the layout comes from a one-shot fetch with all
	// slots vacant.
	Slots(ctx context.Context, managementName string) (facility.Facility, error)
}

type establishmentUseCaseImpl struct {
	store    docstore.Store
	coord    *coordinator.Coordinator
	position *location.Store
	log      *slog.Logger
}

func NewEstablishmentUseCase(store docstore.Store, coord *coordinator.Coordinator, position *location.Store, log *slog.Logger) EstablishmentUseCase {
	return &establishmentUseCaseImpl{store: store, coord: coord, position: position, log: log}
}

func (e *establishmentUseCaseImpl) List(ctx context.Context) ([]facility.Facility, error) {
	docs, err := e.store.Query(ctx, docstore.CollEstablishments)
	if err != nil {
		return nil, err
	}

	out := make([]facility.Facility, 0, len(docs))
	for _, doc := range docs {
		f, err := facility.Parse(doc.Fields)
		if err != nil {
			e.log.Warn("skipping malformed establishment document",
				slog.String("id", doc.ID),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, f)
	}

	here, _ := e.position.Current()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasCoordinates() != b.HasCoordinates() {
			return a.HasCoordinates()
		}
		if !a.HasCoordinates() {
			return false
		}
		return here.DistanceKm(location.Coordinates{Lat: a.Latitude, Lng: a.Longitude}) <
			here.DistanceKm(location.Coordinates{Lat: b.Latitude, Lng: b.Longitude})
	})
	return out, nil
}

func (e *establishmentUseCaseImpl) Slots(ctx context.Context, managementName string) (facility.Facility, error) {
	if view, ok := e.coord.Tracker().Snapshot(); ok && view.ManagementName == managementName {
		return view, nil
	}

	docs, err := e.store.Query(ctx, docstore.CollEstablishments,
		docstore.Where("managementName", docstore.OpEqual, managementName))
	if err != nil {
		return facility.Facility{}, err
	}
	if len(docs) == 0 {
		return facility.Facility{}, errs.ErrFacilityNotFound
	}
	return facility.Parse(docs[0].Fields)
}
