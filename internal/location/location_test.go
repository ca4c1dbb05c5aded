//go:build unit

package location_test

import (
	"context"
	"testing"
	"time"

	"spotwise/internal/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	readyAfter int
	calls      int
	coord      location.Coordinates
	err        error
}

func (f *fakeProvider) Current(context.Context) (location.Coordinates, bool, error) {
	f.calls++
	if f.err != nil {
		return location.Coordinates{}, false, f.err
	}
	if f.calls <= f.readyAfter {
		return location.Coordinates{}, false, nil
	}
	return f.coord, true, nil
}

func TestStoreDefaults(t *testing.T) {
	s := location.NewStore()

	coord, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, location.DefaultLat, coord.Lat)
	assert.Equal(t, location.DefaultLng, coord.Lng)

	s.Set(location.Coordinates{Lat: 1, Lng: 2})
	coord, ok = s.Current()
	assert.True(t, ok)
	assert.Equal(t, 1.0, coord.Lat)
}

func TestAwaitPollsUntilReady(t *testing.T) {
	s := location.NewStore()
	p := &fakeProvider{readyAfter: 2, coord: location.Coordinates{Lat: 10.3, Lng: 123.9}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	coord, err := location.Await(ctx, p, s)
	require.NoError(t, err)
	assert.Equal(t, 10.3, coord.Lat)
	assert.Equal(t, 3, p.calls)

	stored, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, coord, stored)
}

func TestAwaitHonorsContext(t *testing.T) {
	s := location.NewStore()
	p := &fakeProvider{readyAfter: 1 << 30}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := location.Await(ctx, p, s)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitPropagatesProviderError(t *testing.T) {
	s := location.NewStore()
	p := &fakeProvider{err: assert.AnError}

	_, err := location.Await(context.Background(), p, s)
	require.ErrorIs(t, err, assert.AnError)
}

func TestDistanceKm(t *testing.T) {
	cityCenter := location.Coordinates{Lat: location.DefaultLat, Lng: location.DefaultLng}

	assert.Zero(t, cityCenter.DistanceKm(cityCenter))

	// Roughly one degree of latitude north: ~111 km.
	north := location.Coordinates{Lat: location.DefaultLat + 1, Lng: location.DefaultLng}
	d := cityCenter.DistanceKm(north)
	assert.InDelta(t, 111.2, d, 1.0)
	assert.InDelta(t, d, north.DistanceKm(cityCenter), 1e-9)
}

func TestProviderFunc(t *testing.T) {
	p := location.ProviderFunc(func(context.Context) (location.Coordinates, bool, error) {
		return location.Coordinates{Lat: 1, Lng: 2}, true, nil
	})

	coord, ok, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2.0, coord.Lng)
}
