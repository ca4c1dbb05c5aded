// Package location supplies the device's current coordinates. The map
// view centers on them; until a reading exists, defaults point at the
// city center.
package location

import (
	"context"
	"math"
	"sync"
	"time"
)

// Default coordinates used before any reading arrives.
const (
	DefaultLat = 10.1735
	DefaultLng = 123.5407
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance to o.
func (c Coordinates) DistanceKm(o Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := o.Lat * math.Pi / 180
	dLat := (o.Lat - c.Lat) * math.Pi / 180
	dLng := (o.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Provider is the external positioning source. A reading may not be
// available yet, in which case ok is false and the caller retries.
type Provider interface {
	Current(ctx context.Context) (Coordinates, bool, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context) (Coordinates, bool, error)

func (f ProviderFunc) Current(ctx context.Context) (Coordinates, bool, error) {
	return f(ctx)
}

// Store holds the last known reading and serves defaults until one
// exists.
type Store struct {
	mu    sync.Mutex
	coord Coordinates
	set   bool
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Set(c Coordinates) {
	s.mu.Lock()
	s.coord = c
	s.set = true
	s.mu.Unlock()
}

// Current returns the last reading, or the defaults when none exists
// yet.
func (s *Store) Current() (Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Coordinates{Lat: DefaultLat, Lng: DefaultLng}, false
	}
	return s.coord, true
}

// Await polls the provider until a reading is available or ctx is done.
// The interval doubles up to a cap between attempts; polling is only the
// fallback path for providers without push updates.
func Await(ctx context.Context, p Provider, store *Store) (Coordinates, error) {
	const (
		initialBackoff = 200 * time.Millisecond
		maxBackoff     = 5 * time.Second
	)

	backoff := initialBackoff
	for {
		coord, ok, err := p.Current(ctx)
		if err != nil {
			return Coordinates{}, err
		}
		if ok {
			store.Set(coord)
			return coord, nil
		}

		select {
		case <-ctx.Done():
			return Coordinates{}, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}
