// Package location models the device location capability: a single-shot
// request that yields one reading or a failure.
package location

import (
	"context"
	"errors"
	"field-verify/internal/models"
	"fmt"
	"time"
)

// ErrLocationUnavailable is the umbrella for every reason a usable reading
// could not be produced.
var ErrLocationUnavailable = errors.New("location unavailable")

var (
	ErrPermissionDenied = fmt.Errorf("%w: permission denied", ErrLocationUnavailable)
	ErrUnavailable      = fmt.Errorf("%w: no reading from platform", ErrLocationUnavailable)
	ErrLowAccuracy      = fmt.Errorf("%w: reading accuracy too low", ErrLocationUnavailable)
)

// Reason returns a short machine-readable code for a location error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrLowAccuracy):
		return "low_accuracy"
	case errors.Is(err, ErrLocationUnavailable):
		return "unavailable"
	default:
		return ""
	}
}

type Provider interface {
	// Locate requests one fresh reading. Implementations must not cache.
	Locate(ctx context.Context) (models.Reading, error)
}

type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnavailable Permission = "unavailable"
)

// Reported is a reading (or failure) that the mobile client obtained from
// the device and sent along with its check request.
type Reported struct {
	Permission Permission
	Reading    models.Reading
}

func (r Reported) Locate(ctx context.Context) (models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return models.Reading{}, err
	}
	switch r.Permission {
	case PermissionGranted, "":
	case PermissionDenied:
		return models.Reading{}, ErrPermissionDenied
	default:
		return models.Reading{}, ErrUnavailable
	}

	reading := r.Reading
	if reading.TakenAt.IsZero() {
		reading.TakenAt = time.Now()
	}
	return reading, nil
}

// Static always returns the same reading, or Err when set.
type Static struct {
	Reading models.Reading
	Err     error
}

func (s Static) Locate(ctx context.Context) (models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return models.Reading{}, err
	}
	if s.Err != nil {
		return models.Reading{}, s.Err
	}
	return s.Reading, nil
}
