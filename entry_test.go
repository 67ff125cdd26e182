package geoedit

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func TestManualEntryFeature(t *testing.T) {
	e := ManualEntry{Kind: "Point", Coords: []LatLon{{Lat: 34.05, Lon: -118.25}}, Attributes: Attributes{"name": "LA"}}
	f, err := e.Feature()
	if err != nil {
		t.Fatal(err)
	}
	if f.Geometry != (orb.Point{-118.25, 34.05}) {
		t.Fatalf("geometry = %v", f.Geometry)
	}

	poly := ManualEntry{Kind: EntryPolygon, Coords: []LatLon{{0, 0}, {0, 1}, {1, 1}}}
	if f, err = poly.Feature(); err != nil {
		t.Fatal(err)
	}
	ring := f.Geometry.(orb.Polygon)[0]
	if len(ring) != 4 || !ring.Closed() {
		t.Fatalf("ring = %v", ring)
	}

	line := ManualEntry{Kind: EntryLine, Coords: []LatLon{{10, 20}, {11, 21}}}
	if f, err = line.Feature(); err != nil {
		t.Fatal(err)
	}
	if ls := f.Geometry.(orb.LineString); ls[1] != (orb.Point{21, 11}) {
		t.Fatalf("line = %v", ls)
	}
}

func TestManualEntryRejects(t *testing.T) {
	many := make([]LatLon, MAX_ENTRY_VERTICES+1)
	for i := range many {
		many[i] = LatLon{Lat: float64(i), Lon: float64(i)}
	}
	cases := []struct {
		name  string
		entry ManualEntry
		coord bool
	}{
		{"unknown kind", ManualEntry{Kind: "circle", Coords: []LatLon{{0, 0}}}, false},
		{"point with two", ManualEntry{Kind: EntryPoint, Coords: []LatLon{{0, 0}, {1, 1}}}, false},
		{"line with one", ManualEntry{Kind: EntryLine, Coords: []LatLon{{0, 0}}}, false},
		{"line too long", ManualEntry{Kind: EntryLine, Coords: many}, false},
		{"closed triangle of two", ManualEntry{Kind: EntryPolygon, Coords: []LatLon{{0, 0}, {1, 1}, {0, 0}}}, false},
		{"latitude out of range", ManualEntry{Kind: EntryPoint, Coords: []LatLon{{91, 0}}}, true},
		{"longitude out of range", ManualEntry{Kind: EntryLine, Coords: []LatLon{{0, 0}, {0, -181}}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.entry.Feature()
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Fatalf("err = %v", err)
			}
			if c.coord != errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("coordinate err mismatch: %v", err)
			}
		})
	}
}

func TestManualEntrySubmit(t *testing.T) {
	proj := &shiftReprojector{offset: 1000}
	s := NewFeatureStore(proj)
	if err := s.LoadFrom([]Feature{pointFeature(0, 0, nil)}, CRS_WEB_MERC); err != nil {
		t.Fatal(err)
	}
	e := ManualEntry{Kind: EntryPoint, Coords: []LatLon{{Lat: 5, Lon: 6}}}
	if err := e.Submit(s); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Crs() != CRS_WEB_MERC {
		t.Fatalf("len = %d, crs = %s", s.Len(), s.Crs())
	}
	if g := s.Snapshot().Features[1].Geometry; g != (orb.Point{1006, 5}) {
		t.Fatalf("geometry = %v", g)
	}
	bad := ManualEntry{Kind: EntryLine, Coords: []LatLon{{1, 1}}}
	if err := bad.Submit(s); err == nil || s.Len() != 2 {
		t.Fatalf("err = %v, len = %d", err, s.Len())
	}
}
