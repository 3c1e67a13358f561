package farms

import (
	"errors"
	"field-verify/internal/models"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/umahmood/haversine"
)

var (
	ErrNotFound  = errors.New("farm not found")
	ErrDuplicate = errors.New("duplicate farm id")
)

// meters per degree of latitude, used only to size the search box
const metersPerDegree = 111320.0

type farmItem struct {
	rect rtreego.Rect
	farm models.Farm
}

func (f *farmItem) Bounds() rtreego.Rect {
	return f.rect
}

// Registry indexes the farms an official can be sent to verify.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*farmItem
	tree *rtreego.Rtree
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]*farmItem),
		// 2D (lon, lat), min 25 / max 50 children per node
		tree: rtreego.NewTree(2, 25, 50),
	}
}

func (r *Registry) Add(f models.Farm) error {
	if f.ID == "" {
		return fmt.Errorf("farm without id")
	}

	point := rtreego.Point{f.Loc.Lon, f.Loc.Lat}
	// rect, but essentially storing a point
	rect, err := rtreego.NewRect(point, []float64{1e-9, 1e-9})
	if err != nil {
		return fmt.Errorf("farm %s: %w", f.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[f.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, f.ID)
	}
	item := &farmItem{rect: rect, farm: f}
	r.byID[f.ID] = item
	r.tree.Insert(item)
	return nil
}

// AddAll adds farms until the first failure.
func (r *Registry) AddAll(farms []models.Farm) error {
	for _, f := range farms {
		if err := r.Add(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(id string) (models.Farm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.byID[id]
	if !ok {
		return models.Farm{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item.farm, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Nearby returns farms within radiusMeters of c, nearest first.
func (r *Registry) Nearby(c models.Coordinate, radiusMeters float64) []models.NearbyFarm {
	if radiusMeters <= 0 {
		return nil
	}

	// Bounding box in degrees; longitude degrees shrink with latitude.
	dLat := radiusMeters / metersPerDegree
	dLon := dLat / math.Max(math.Cos(c.Lat*math.Pi/180), 0.01)
	searchRect, err := rtreego.NewRect(
		rtreego.Point{c.Lon - dLon, c.Lat - dLat},
		[]float64{2 * dLon, 2 * dLat},
	)
	if err != nil {
		return nil
	}

	r.mu.RLock()
	candidates := r.tree.SearchIntersect(searchRect)
	r.mu.RUnlock()

	origin := haversine.Coord{Lat: c.Lat, Lon: c.Lon}
	var out []models.NearbyFarm
	for _, s := range candidates {
		item := s.(*farmItem)

		// exact great-circle check so the result is a circle, not the box.
		// haversine uses a 6371 km Earth radius, the same as calculator.Haversine;
		// listed distances must agree with what the gate measures.
		_, km := haversine.Distance(origin, haversine.Coord{Lat: item.farm.Loc.Lat, Lon: item.farm.Loc.Lon})
		meters := km * 1000
		if meters <= radiusMeters {
			out = append(out, models.NearbyFarm{Farm: item.farm, DistanceMeters: meters})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	return out
}
