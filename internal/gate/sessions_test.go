package gate

import (
	"context"
	"field-verify/internal/models"
	"field-verify/internal/proximity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_OpenReusesGate(t *testing.T) {
	s := NewSessions(proximity.Default(), 0)
	a := s.Open("sid-1", testFarm)
	b := s.Open("sid-1", testFarm)
	c := s.Open("sid-2", testFarm)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, s.Len())
}

func TestSessions_DiscardClosesGate(t *testing.T) {
	s := NewSessions(proximity.Default(), 0)
	g := s.Open("sid-1", testFarm)
	_, err := g.Check(context.Background(), at(13.0827, 80.2707))
	require.NoError(t, err)

	assert.True(t, s.Discard("sid-1", testFarm.ID))
	assert.False(t, s.Discard("sid-1", testFarm.ID))
	assert.False(t, g.MayProceed())

	_, ok := s.Lookup("sid-1", testFarm.ID)
	assert.False(t, ok)

	// reopening the screen starts from scratch
	fresh := s.Open("sid-1", testFarm)
	assert.NotSame(t, g, fresh)
	_, ok = fresh.Current()
	assert.False(t, ok)
}

func TestSessions_DiscardSession(t *testing.T) {
	s := NewSessions(proximity.Default(), 0)
	other := models.Farm{ID: "TN-CHN-0043", Loc: models.Coordinate{Lat: 13.1, Lon: 80.3}}
	s.Open("sid-1", testFarm)
	s.Open("sid-1", other)
	kept := s.Open("sid-2", testFarm)

	assert.Equal(t, 2, s.DiscardSession("sid-1"))
	assert.Equal(t, 1, s.Len())

	g, ok := s.Lookup("sid-2", testFarm.ID)
	require.True(t, ok)
	assert.Same(t, kept, g)
}

func TestSessions_EvictsIdleGates(t *testing.T) {
	s := NewSessions(proximity.Default(), 30*time.Minute)
	clock := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	abandoned := s.Open("sid-1", testFarm)
	_, err := abandoned.Check(context.Background(), at(13.0827, 80.2707))
	require.NoError(t, err)
	active := s.Open("sid-2", testFarm)

	clock = clock.Add(20 * time.Minute)
	_, ok := s.Lookup("sid-2", testFarm.ID)
	require.True(t, ok)

	// sid-1 has been idle for 31 minutes, sid-2 for 11
	clock = clock.Add(11 * time.Minute)
	s.Open("sid-3", testFarm)

	assert.Equal(t, 2, s.Len())
	assert.False(t, abandoned.MayProceed())
	_, err = abandoned.Check(context.Background(), at(13.0827, 80.2707))
	assert.ErrorIs(t, err, ErrClosed)

	g, ok := s.Lookup("sid-2", testFarm.ID)
	require.True(t, ok)
	assert.Same(t, active, g)
}

func TestSessions_LookupDropsExpiredGate(t *testing.T) {
	s := NewSessions(proximity.Default(), time.Minute)
	clock := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	g := s.Open("sid-1", testFarm)
	clock = clock.Add(2 * time.Minute)

	_, ok := s.Lookup("sid-1", testFarm.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	_, err := g.Check(context.Background(), at(13.0827, 80.2707))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessions_ZeroTTLKeepsGates(t *testing.T) {
	s := NewSessions(proximity.Default(), 0)
	clock := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	g := s.Open("sid-1", testFarm)
	clock = clock.Add(24 * time.Hour)

	got, ok := s.Lookup("sid-1", testFarm.ID)
	require.True(t, ok)
	assert.Same(t, g, got)
}
