package models

import (
	"time"

	"github.com/google/uuid"
)

// Coordinate is a WGS-84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Reading is a single sample returned by a device's location services.
type Reading struct {
	Loc      Coordinate `json:"coordinate"`
	Accuracy float64    `json:"accuracy_m"` // uncertainty radius, 0 when unknown
	TakenAt  time.Time  `json:"taken_at"`
}

type Tier string

const (
	TierExcellent  Tier = "excellent"
	TierAcceptable Tier = "acceptable"
	TierTooFar     Tier = "too_far"
)

type ProximityResult struct {
	DistanceMeters  float64 `json:"distance_m"`
	Tier            Tier    `json:"tier"`
	GateOpen        bool    `json:"gate_open"`
	ThresholdMeters float64 `json:"threshold_m"`
}

type AttemptState string

const (
	AttemptOpen                AttemptState = "open"
	AttemptOutOfRange          AttemptState = "out_of_range"
	AttemptLocationUnavailable AttemptState = "location_unavailable"
)

// VerificationAttempt lives only as long as the verification screen that
// requested it.
type VerificationAttempt struct {
	ID        uuid.UUID        `json:"id"`
	FarmID    string           `json:"farm_id"`
	Target    Coordinate       `json:"target"`
	Measured  *Reading         `json:"measured,omitempty"`
	Result    *ProximityResult `json:"result,omitempty"`
	State     AttemptState     `json:"state"`
	Reason    string           `json:"reason,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}

type Farm struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	OwnerID  string     `json:"owner_id,omitempty"`
	CropType string     `json:"crop_type,omitempty"`
	District string     `json:"district,omitempty"`
	Loc      Coordinate `json:"location"`
}

type NearbyFarm struct {
	Farm           Farm    `json:"farm"`
	DistanceMeters float64 `json:"distance_m"`
}

// Visit is one past verification visit read from an audit workbook.
type Visit struct {
	FarmID   string
	Target   Coordinate
	Measured Reading
	RowIndex int
}

type AuditRow struct {
	FarmID    string
	TargetLat float64
	TargetLon float64
	MeasLat   float64
	MeasLon   float64
	Accuracy  float64
	Distance  int
	Tier      string
	GateOpen  bool
	Reason    string
	SourceRow int
}
