// Package gate decides whether a field official may move on from the GPS
// check to the rest of a farm verification visit.
package gate

import (
	"context"
	"errors"
	"field-verify/internal/location"
	"field-verify/internal/models"
	"field-verify/internal/proximity"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSuperseded = errors.New("gate: check superseded by a newer one")
	ErrClosed     = errors.New("gate: closed")
)

// Gate holds the single live attempt for one farm on one official's screen.
type Gate struct {
	farm   models.Farm
	policy proximity.Policy
	now    func() time.Time

	mu      sync.Mutex
	seq     uint64
	closed  bool
	current *models.VerificationAttempt
}

func New(farm models.Farm, policy proximity.Policy) *Gate {
	return &Gate{
		farm:   farm,
		policy: policy,
		now:    time.Now,
	}
}

// Check requests one reading from p and records the resulting attempt.
// Location failures are not errors here: they come back as an attempt in
// state AttemptLocationUnavailable. The returned error is non-nil only when
// the attempt was dropped: the gate was closed, a newer Check started, or
// ctx ended before the reading resolved.
func (g *Gate) Check(ctx context.Context, p location.Provider) (models.VerificationAttempt, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return models.VerificationAttempt{}, ErrClosed
	}
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	reading, locErr := p.Locate(ctx)
	if err := ctx.Err(); err != nil {
		slog.Info("Verification check discarded", "farm_id", g.farm.ID, "error", err)
		return models.VerificationAttempt{}, err
	}

	attempt := g.evaluate(reading, locErr)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return models.VerificationAttempt{}, ErrClosed
	}
	if seq != g.seq {
		return models.VerificationAttempt{}, ErrSuperseded
	}
	g.current = &attempt

	slog.Info("Verification check",
		"farm_id", g.farm.ID,
		"attempt_id", attempt.ID,
		"state", attempt.State,
		"reason", attempt.Reason)
	return attempt, nil
}

func (g *Gate) evaluate(reading models.Reading, locErr error) models.VerificationAttempt {
	attempt := models.VerificationAttempt{
		ID:        uuid.New(),
		FarmID:    g.farm.ID,
		Target:    g.farm.Loc,
		CheckedAt: g.now(),
	}

	if locErr != nil {
		attempt.State = models.AttemptLocationUnavailable
		attempt.Reason = location.Reason(locErr)
		if attempt.Reason == "" {
			attempt.Reason = "unavailable"
		}
		return attempt
	}

	attempt.Measured = &reading
	res, err := g.policy.Assess(g.farm.Loc, reading)
	if err != nil {
		attempt.State = models.AttemptLocationUnavailable
		attempt.Reason = location.Reason(err)
		return attempt
	}

	attempt.Result = &res
	if res.GateOpen {
		attempt.State = models.AttemptOpen
	} else {
		attempt.State = models.AttemptOutOfRange
	}
	return attempt
}

// Current returns the latest recorded attempt, if any.
func (g *Gate) Current() (models.VerificationAttempt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return models.VerificationAttempt{}, false
	}
	return *g.current, true
}

func (g *Gate) MayProceed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed && g.current != nil && g.current.State == models.AttemptOpen
}

// Close drops the current attempt. In-flight checks finish with ErrClosed.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.current = nil
}
