package geoedit

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

type EntryKind string

const (
	EntryPoint   EntryKind = "point"
	EntryLine    EntryKind = "line"
	EntryPolygon EntryKind = "polygon"
)

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// 手动录入的要素（坐标按纬度、经度输入）
type ManualEntry struct {
	Kind       EntryKind  `json:"kind"`
	Coords     []LatLon   `json:"coords"`
	Attributes Attributes `json:"attributes,omitempty"`
}

func (e *ManualEntry) checkCoords() error {
	kind := EntryKind(strings.ToLower(string(e.Kind)))
	n := len(e.Coords)
	var lo, hi int
	switch kind {
	case EntryPoint:
		lo, hi = 1, 1
	case EntryLine:
		lo, hi = MIN_LINE_VERTICES, MAX_ENTRY_VERTICES
	case EntryPolygon:
		lo, hi = MIN_POLYGON_VERTEX, MAX_ENTRY_VERTICES
		// 已闭合的输入不计末点
		if n > 1 && e.Coords[0] == e.Coords[n-1] {
			n--
		}
	default:
		return fmt.Errorf("%w: unknown feature kind %q", ErrInvalidGeometry, e.Kind)
	}
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s needs %d-%d vertices, got %d", ErrInvalidGeometry, kind, lo, hi, n)
	}
	for i, c := range e.Coords {
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return fmt.Errorf("%w: %w: vertex %d (%g, %g)", ErrInvalidGeometry, ErrInvalidCoordinate, i+1, c.Lat, c.Lon)
		}
	}
	e.Kind = kind
	return nil
}

// 校验录入并生成要素（坐标为经度、纬度次序，多边形自动闭合）
func (e *ManualEntry) Feature() (f Feature, err error) {
	if err = e.checkCoords(); err != nil {
		return
	}
	pts := make([]orb.Point, len(e.Coords))
	for i, c := range e.Coords {
		pts[i] = orb.Point{c.Lon, c.Lat}
	}
	switch e.Kind {
	case EntryPoint:
		f.Geometry = pts[0]
	case EntryLine:
		f.Geometry = orb.LineString(pts)
	case EntryPolygon:
		ring := orb.Ring(pts)
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		f.Geometry = orb.Polygon{ring}
	}
	f.Attributes = cloneAttributes(e.Attributes)
	return
}

// 提交到要素集合，录入坐标系为展示坐标系
func (e *ManualEntry) Submit(store *FeatureStore) (err error) {
	f, err := e.Feature()
	if err != nil {
		return
	}
	return store.AddFeature(f, DISPLAY_CRS)
}
