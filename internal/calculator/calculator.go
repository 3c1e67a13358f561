package calculator

import (
	"field-verify/internal/models"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

type ProgressCallback func(current, total int, msg string)
type LoggerCallback func(msg string)

// Assessor evaluates one measured reading against a target coordinate.
// A non-nil error means the reading could not be used and no distance applies.
type Assessor interface {
	Assess(target models.Coordinate, r models.Reading) (models.ProximityResult, error)
}

// ComputeAudit evaluates every visit in parallel and returns one row per
// visit, in input order.
func ComputeAudit(visits []models.Visit, assessor Assessor, onProgress ProgressCallback, logger LoggerCallback) ([]models.AuditRow, error) {
	if len(visits) == 0 {
		return nil, fmt.Errorf("empty visit list")
	}
	if logger == nil {
		logger = func(string) {}
	}

	total := len(visits)
	results := make([]models.AuditRow, total)

	numCPU := runtime.NumCPU()
	if numCPU < 1 {
		numCPU = 1
	}
	chunkSize := (total + numCPU - 1) / numCPU

	var wg sync.WaitGroup
	var processedCount int64

	logger(fmt.Sprintf("Starting audit with %d CPUs, %d visits", numCPU, total))

	for i := 0; i < numCPU; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if start >= total {
			break
		}
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()

			for idx := s; idx < e; idx++ {
				results[idx] = auditRow(visits[idx], assessor)

				count := atomic.AddInt64(&processedCount, 1)
				if count%500 == 0 && onProgress != nil {
					onProgress(int(count), total, "")
				}
			}
		}(start, end)
	}

	wg.Wait()

	if onProgress != nil {
		onProgress(total, total, "")
	}

	logger("Audit completed.")
	return results, nil
}

func auditRow(v models.Visit, assessor Assessor) models.AuditRow {
	row := models.AuditRow{
		FarmID:    v.FarmID,
		TargetLat: v.Target.Lat,
		TargetLon: v.Target.Lon,
		MeasLat:   v.Measured.Loc.Lat,
		MeasLon:   v.Measured.Loc.Lon,
		Accuracy:  v.Measured.Accuracy,
		SourceRow: v.RowIndex,
	}

	res, err := assessor.Assess(v.Target, v.Measured)
	if err != nil {
		row.Distance = -1
		row.Reason = err.Error()
		return row
	}
	row.Distance = int(math.Round(res.DistanceMeters))
	row.Tier = string(res.Tier)
	row.GateOpen = res.GateOpen
	return row
}
