package geoedit

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNormalizeGeometry(t *testing.T) {
	cases := []struct {
		name  string
		geom  orb.Geometry
		ok    bool
		nRing int // 规范化后外环点数
	}{
		{"point", orb.Point{1, 2}, true, 0},
		{"nan point", orb.Point{math.NaN(), 2}, false, 0},
		{"line", orb.LineString{{0, 0}, {1, 1}}, true, 0},
		{"short line", orb.LineString{{0, 0}}, false, 0},
		{"closed polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, true, 4},
		{"open polygon", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}}}, true, 4},
		{"degenerate ring", orb.Polygon{{{0, 0}, {1, 0}, {0, 0}}}, false, 0},
		{"empty polygon", orb.Polygon{}, false, 0},
		{"multipoint", orb.MultiPoint{{0, 0}, {1, 1}}, true, 0},
		{"empty multipoint", orb.MultiPoint{}, false, 0},
		{"multiline", orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}, true, 0},
		{"multipolygon", orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}}}}, true, 0},
		{"collection", orb.Collection{orb.Point{1, 1}}, false, 0},
		{"nil", nil, false, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := NormalizeGeometry(c.geom)
			if !c.ok {
				if !errors.Is(err, ErrInvalidGeometry) {
					t.Fatalf("err = %v, want ErrInvalidGeometry", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.GeoJSONType() != c.geom.GeoJSONType() {
				t.Fatalf("type = %s", got.GeoJSONType())
			}
			if c.nRing > 0 {
				ring := got.(orb.Polygon)[0]
				if len(ring) != c.nRing || !ring.Closed() {
					t.Fatalf("ring = %v", ring)
				}
			}
		})
	}
}

func TestNormalizeMultiPolygonClosesRings(t *testing.T) {
	got, err := NormalizeGeometry(orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}}}, {{{5, 5}, {6, 5}, {6, 6}, {5, 5}}}})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range got.(orb.MultiPolygon) {
		if !p[0].Closed() {
			t.Fatalf("ring not closed: %v", p[0])
		}
	}
}

func TestFamilyAndCount(t *testing.T) {
	if f := familyOf(orb.MultiLineString{}); f != FamilyLine {
		t.Fatalf("family = %s", f)
	}
	if f := familyOf(orb.MultiPolygon{}); f != FamilyPolygon {
		t.Fatalf("family = %s", f)
	}
	if n := pointCount(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, {{0.2, 0.2}, {0.3, 0.2}, {0.3, 0.3}, {0.2, 0.2}}}); n != 8 {
		t.Fatalf("count = %d", n)
	}
	if GeometryType(nil) != "" || GeometryType(orb.Point{}) != "Point" {
		t.Fatal("unexpected geometry type name")
	}
}
