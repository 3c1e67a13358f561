// Package proximity classifies the distance between an official and a
// target farm into a tier and a pass/fail gate.
package proximity

import (
	"errors"
	"field-verify/internal/calculator"
	"field-verify/internal/location"
	"field-verify/internal/models"
)

const (
	DefaultExcellentMeters = 50.0
	DefaultThresholdMeters = 100.0
)

var ErrInvalidThresholds = errors.New("proximity: thresholds must satisfy 0 <= excellent <= threshold")

type Policy struct {
	ExcellentMeters float64
	ThresholdMeters float64
	// MaxAccuracyMeters rejects readings whose uncertainty radius is larger.
	// Zero trusts every reading.
	MaxAccuracyMeters float64
}

func Default() Policy {
	return Policy{
		ExcellentMeters: DefaultExcellentMeters,
		ThresholdMeters: DefaultThresholdMeters,
	}
}

func NewPolicy(excellent, threshold, maxAccuracy float64) (Policy, error) {
	if excellent < 0 || threshold < excellent || maxAccuracy < 0 {
		return Policy{}, ErrInvalidThresholds
	}
	return Policy{
		ExcellentMeters:   excellent,
		ThresholdMeters:   threshold,
		MaxAccuracyMeters: maxAccuracy,
	}, nil
}

func (p Policy) Classify(distance float64) models.Tier {
	switch {
	case distance <= p.ExcellentMeters:
		return models.TierExcellent
	case distance <= p.ThresholdMeters:
		return models.TierAcceptable
	default:
		return models.TierTooFar
	}
}

func (p Policy) GateOpen(distance float64) bool {
	return distance <= p.ThresholdMeters
}

func (p Policy) Evaluate(target, measured models.Coordinate) models.ProximityResult {
	d := calculator.Distance(target, measured)
	return models.ProximityResult{
		DistanceMeters:  d,
		Tier:            p.Classify(d),
		GateOpen:        p.GateOpen(d),
		ThresholdMeters: p.ThresholdMeters,
	}
}

// Trusts reports whether a reading is precise enough to gate on.
func (p Policy) Trusts(r models.Reading) bool {
	return p.MaxAccuracyMeters <= 0 || r.Accuracy <= p.MaxAccuracyMeters
}

// Assess evaluates a reading, refusing it with location.ErrLowAccuracy when
// its reported accuracy is worse than the policy allows.
func (p Policy) Assess(target models.Coordinate, r models.Reading) (models.ProximityResult, error) {
	if !p.Trusts(r) {
		return models.ProximityResult{}, location.ErrLowAccuracy
	}
	return p.Evaluate(target, r.Loc), nil
}

// Classify applies the default thresholds.
func Classify(distance float64) models.Tier {
	return Default().Classify(distance)
}

// GateOpen applies the default threshold.
func GateOpen(distance float64) bool {
	return Default().GateOpen(distance)
}
