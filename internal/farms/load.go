package farms

import (
	"encoding/json"
	"field-verify/internal/excel"
	"field-verify/internal/models"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LoadFile reads farms from an .xlsx workbook (sheet "Farms") or a GeoJSON
// FeatureCollection of points.
func LoadFile(path string) ([]models.Farm, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := excel.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open farms workbook: %w", err)
		}
		defer f.Close()
		return excel.ReadFarms(f, excel.FarmsSheet)
	case ".json", ".geojson":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read farms file: %w", err)
		}
		return ParseGeoJSON(data)
	default:
		return nil, fmt.Errorf("unsupported farms file type %q", filepath.Ext(path))
	}
}

// ParseGeoJSON converts a FeatureCollection of Point features into farms.
// Recognised properties: name, owner_id, crop_type, district.
func ParseGeoJSON(data []byte) ([]models.Farm, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal GeoJSON: %w", err)
	}

	farms := make([]models.Farm, 0, len(fc.Features))
	for i, feature := range fc.Features {
		point, ok := feature.Geometry.(*geom.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: geometry is not a Point", i)
		}

		id := feature.ID
		if id == "" {
			id = stringProp(feature.Properties, "id")
		}
		if id == "" {
			return nil, fmt.Errorf("feature %d: missing id", i)
		}

		farms = append(farms, models.Farm{
			ID:       id,
			Name:     stringProp(feature.Properties, "name"),
			OwnerID:  stringProp(feature.Properties, "owner_id"),
			CropType: stringProp(feature.Properties, "crop_type"),
			District: stringProp(feature.Properties, "district"),
			// GeoJSON positions are [lon, lat]
			Loc: models.Coordinate{Lat: point.Y(), Lon: point.X()},
		})
	}
	return farms, nil
}

func stringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key]; ok {
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return fmt.Sprintf("%v", t)
		}
	}
	return ""
}

// ToGeoJSON encodes a single farm as a GeoJSON Feature.
func ToGeoJSON(f models.Farm) ([]byte, error) {
	point := geom.NewPointFlat(geom.XY, []float64{f.Loc.Lon, f.Loc.Lat})
	feature := &geojson.Feature{
		ID:       f.ID,
		Geometry: point,
		Properties: map[string]interface{}{
			"name":      f.Name,
			"owner_id":  f.OwnerID,
			"crop_type": f.CropType,
			"district":  f.District,
		},
	}
	return json.Marshal(feature)
}
