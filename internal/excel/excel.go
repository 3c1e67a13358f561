package excel

import (
	"field-verify/internal/models"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	FarmsSheet  = "Farms"
	VisitsSheet = "Visits"
	AuditSheet  = "Audit"
)

func parseCoord(val string) (float64, error) {
	// Replace comma with dot for locales that use a decimal comma
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.ParseFloat(val, 64)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func OpenFile(filename string) (*excelize.File, error) {
	return excelize.OpenFile(filename)
}

func OpenReader(r io.Reader) (*excelize.File, error) {
	return excelize.OpenReader(r)
}

func HasSheet(f *excelize.File, sheetName string) bool {
	for _, name := range f.GetSheetList() {
		if name == sheetName {
			return true
		}
	}
	return false
}

// ReadFarms reads the farm registry sheet.
// Columns: A ID, B Name, C Owner, D Crop, E District, F Lat, G Lon.
func ReadFarms(f *excelize.File, sheetName string) ([]models.Farm, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var farms []models.Farm
	for i, row := range rows {
		if i == 0 {
			continue // Skip header
		}
		if len(row) < 7 || cell(row, 0) == "" {
			continue
		}

		lat, err1 := parseCoord(row[5])
		lon, err2 := parseCoord(row[6])
		if err1 != nil || err2 != nil {
			continue // Skip invalid rows
		}

		farms = append(farms, models.Farm{
			ID:       cell(row, 0),
			Name:     cell(row, 1),
			OwnerID:  cell(row, 2),
			CropType: cell(row, 3),
			District: cell(row, 4),
			Loc:      models.Coordinate{Lat: lat, Lon: lon},
		})
	}
	return farms, nil
}

// ReadVisits reads past verification visits.
// Columns: A Farm ID, B Target Lat, C Target Lon, D Measured Lat,
// E Measured Lon, F Accuracy (m, optional).
func ReadVisits(f *excelize.File, sheetName string) ([]models.Visit, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var visits []models.Visit
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 5 {
			continue
		}

		var coords [4]float64
		valid := true
		for c := 0; c < 4; c++ {
			v, err := parseCoord(row[c+1])
			if err != nil {
				valid = false
				break
			}
			coords[c] = v
		}
		if !valid {
			continue
		}

		var accuracy float64
		if a := cell(row, 5); a != "" {
			if v, err := parseCoord(a); err == nil {
				accuracy = v
			}
		}

		visits = append(visits, models.Visit{
			FarmID: cell(row, 0),
			Target: models.Coordinate{Lat: coords[0], Lon: coords[1]},
			Measured: models.Reading{
				Loc:      models.Coordinate{Lat: coords[2], Lon: coords[3]},
				Accuracy: accuracy,
			},
			RowIndex: i + 1,
		})
	}
	return visits, nil
}

func WriteAudit(path string, data []models.AuditRow, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Use Stream Writer for performance
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	headers := []interface{}{
		"Farm ID", "Target Lat", "Target Lon", "Measured Lat", "Measured Lon",
		"Accuracy (m)", "Distance (m)", "Tier", "Gate", "Reason", "Source Row",
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	for i, r := range data {
		cellName, _ := excelize.CoordinatesToCellName(1, i+2)
		gate := "CLOSED"
		if r.GateOpen {
			gate = "OPEN"
		}
		var distance interface{} = r.Distance
		if r.Distance < 0 {
			distance = ""
		}
		row := []interface{}{
			r.FarmID, r.TargetLat, r.TargetLon, r.MeasLat, r.MeasLon,
			r.Accuracy, distance, r.Tier, gate, r.Reason, r.SourceRow,
		}
		if err := sw.SetRow(cellName, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	// Delete default sheet if exists
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	return f.SaveAs(path)
}
