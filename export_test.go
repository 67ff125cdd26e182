package geoedit

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

func newLoadedStore(t *testing.T, g *GdalToolbox, features ...Feature) *FeatureStore {
	t.Helper()
	s := NewFeatureStore(g)
	if err := s.LoadFrom(features, CRS_WGS84); err != nil {
		t.Fatal(err)
	}
	return s
}

// 解压导出的zip到临时目录，返回文件名列表
func unzipArtifact(t *testing.T, data []byte) (dir string, names []string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	dir = t.TempDir()
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			t.Fatal(err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(dir, zf.Name), string(content))
		names = append(names, zf.Name)
	}
	sort.Strings(names)
	return
}

func TestExportShapefile(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	s := newLoadedStore(t, g,
		pointFeature(-118.25, 34.05, Attributes{"name": "LA", "pop": float64(3900000), "area": 1302.15}),
		pointFeature(-122.42, 37.77, Attributes{"name": "SF", "pop": float64(870000), "area": 121.4}),
		pointFeature(-117.16, 32.72, Attributes{"name": "SD", "pop": nil, "area": 964.5}),
	)
	a, err := g.Export(s, FormatShapefile, CRS_WGS84)
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != EXPORT_ZIP_NAME || a.ContentType != MIME_ZIP || a.Count != 3 {
		t.Fatalf("artifact = %s %s %d", a.Name, a.ContentType, a.Count)
	}
	dir, names := unzipArtifact(t, a.Data)
	want := []string{"export_shapefile.cpg", "export_shapefile.dbf", "export_shapefile.prj", "export_shapefile.shp", "export_shapefile.shx"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("bundle = %v", names)
	}

	r, err := shp.Open(filepath.Join(dir, "export_shapefile.shp"))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	fields := map[string]int{}
	for i, f := range r.Fields() {
		fields[f.String()] = i
	}
	for _, col := range []string{"name", "pop", "area"} {
		if _, ok := fields[col]; !ok {
			t.Fatalf("missing field %s in %v", col, fields)
		}
	}
	var cnt int
	for r.Next() {
		n, p := r.Shape()
		pt, ok := p.(*shp.Point)
		if !ok {
			t.Fatalf("shape %d is %T", n, p)
		}
		if n == 0 {
			if math.Abs(pt.X+118.25) > 1e-9 || math.Abs(pt.Y-34.05) > 1e-9 {
				t.Fatalf("point = %v", pt)
			}
			if v := strings.TrimSpace(r.ReadAttribute(n, fields["name"])); v != "LA" {
				t.Fatalf("name = %q", v)
			}
			if v := strings.TrimSpace(r.ReadAttribute(n, fields["pop"])); v != "3900000" {
				t.Fatalf("pop = %q", v)
			}
		}
		cnt++
	}
	if err = r.Err(); err != nil {
		t.Fatal(err)
	}
	if cnt != 3 {
		t.Fatalf("shapes = %d", cnt)
	}
	if s.Crs() != CRS_WGS84 || s.Len() != 3 {
		t.Fatal("export mutated store")
	}
}

func TestExportShapefileRoundTrip(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	ring := orb.Ring{{-118, 34}, {-117, 34}, {-117, 35}, {-118, 35}, {-118, 34}}
	s := newLoadedStore(t, g, Feature{Geometry: orb.Polygon{ring}, Attributes: Attributes{"label": "块"}})
	a, err := g.Export(s, FormatShapefile, CRS_WEB_MERC)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := g.ReadUpload("export.zip", a.Data)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Crs != CRS_WEB_MERC || len(ds.Features) != 1 {
		t.Fatalf("dataset = %s %d", ds.Crs, len(ds.Features))
	}
	if v := ds.Features[0].Attributes["label"]; v != "块" {
		t.Fatalf("label = %q", v)
	}
	poly, ok := ds.Features[0].Geometry.(orb.Polygon)
	if !ok || len(poly[0]) != len(ring) {
		t.Fatalf("geometry = %#v", ds.Features[0].Geometry)
	}
	var found bool
	want := project.WGS84.ToMercator(orb.Point{-118, 34})
	for _, p := range poly[0] {
		if near(p, want, 1e-3) {
			found = true
		}
	}
	if !found {
		t.Fatalf("ring %v does not contain %v", poly[0], want)
	}
}

func TestExportShapefileMixedFamilies(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	s := newLoadedStore(t, g,
		pointFeature(1, 1, Attributes{"id": 1}),
		Feature{Geometry: orb.LineString{{0, 0}, {1, 1}}, Attributes: Attributes{"id": 2}},
		Feature{Geometry: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}}}, Attributes: Attributes{"id": 3}},
		Feature{Geometry: orb.MultiPoint{{2, 2}, {3, 3}}, Attributes: Attributes{"id": 4}},
	)
	a, err := g.Export(s, FormatShapefile, CRS_WGS84)
	if err != nil {
		t.Fatal(err)
	}
	dir, names := unzipArtifact(t, a.Data)
	if len(names) != 15 {
		t.Fatalf("bundle = %v", names)
	}
	for fam, want := range map[string]int{"point": 2, "line": 1, "polygon": 1} {
		r, err := shp.Open(filepath.Join(dir, "export_shapefile_"+fam+".shp"))
		if err != nil {
			t.Fatalf("%s: %v", fam, err)
		}
		var n int
		for r.Next() {
			n++
		}
		r.Close()
		if n != want {
			t.Fatalf("%s: shapes = %d, want %d", fam, n, want)
		}
	}
}

func TestExportGeoJSON(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	s := newLoadedStore(t, g, pointFeature(10, 20, Attributes{"name": "p"}))
	for _, crs := range []string{CRS_WGS84, CRS_WEB_MERC, CRS_ROBINSON} {
		a, err := g.Export(s, FormatGeoJSON, crs)
		if err != nil {
			t.Fatalf("%s: %v", crs, err)
		}
		if a.Name != EXPORT_GEOJSON_NAME || a.ContentType != MIME_GEOJSON || a.Crs != crs {
			t.Fatalf("artifact = %s %s %s", a.Name, a.ContentType, a.Crs)
		}
		ds, err := ReadGeoJSON(a.Data)
		if err != nil {
			t.Fatal(err)
		}
		if ds.Crs != crs || len(ds.Features) != 1 || ds.Features[0].Attributes["name"] != "p" {
			t.Fatalf("%s: dataset = %s %v", crs, ds.Crs, ds.Features)
		}
		back, err := g.Reproject(ds.Features[0].Geometry, crs, CRS_WGS84)
		if err != nil {
			t.Fatal(err)
		}
		if !near(back.(orb.Point), orb.Point{10, 20}, 1e-6) {
			t.Fatalf("%s: back = %v", crs, back)
		}
	}
}

func TestExportErrors(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	empty := NewFeatureStore(g)
	for _, f := range []ExportFormat{FormatGeoJSON, FormatShapefile} {
		if _, err := g.Export(empty, f, CRS_WGS84); !errors.Is(err, ErrEmptyStoreExport) {
			t.Fatalf("%s: err = %v", f, err)
		}
	}
	s := newLoadedStore(t, g, pointFeature(100, 30, nil))
	if _, err := g.Export(s, FormatGeoJSON, CRS_UTM_11N); !errors.Is(err, ErrProjectionDomain) {
		t.Fatalf("err = %v", err)
	}
	if _, err := g.Export(s, FormatGeoJSON, "EPSG:abc"); !errors.Is(err, ErrUnsupportedCrs) {
		t.Fatalf("err = %v", err)
	}
	if _, err := g.Export(s, "kml", CRS_WGS84); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
	if s.Len() != 1 || s.Crs() != CRS_WGS84 {
		t.Fatal("failed export mutated store")
	}
}

func TestParseExportFormat(t *testing.T) {
	for in, want := range map[string]ExportFormat{"GeoJSON": FormatGeoJSON, "json": FormatGeoJSON, "shp": FormatShapefile, " Shapefile ": FormatShapefile} {
		if got, err := ParseExportFormat(in); err != nil || got != want {
			t.Errorf("ParseExportFormat(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseExportFormat("kml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
}

func TestCompleteBundle(t *testing.T) {
	dir := t.TempDir()
	shpPath := filepath.Join(dir, "x.shp")
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		writeFile(t, filepath.Join(dir, "x"+ext), "")
	}
	if _, err := completeBundle(shpPath); !errors.Is(err, ErrIncompleteBundle) {
		t.Fatalf("err = %v", err)
	}
	writeFile(t, filepath.Join(dir, "x.prj"), wgs84Wkt)
	files, err := completeBundle(shpPath)
	if err != nil || len(files) != 5 {
		t.Fatalf("files = %v, err = %v", files, err)
	}
	if cpg, _ := os.ReadFile(filepath.Join(dir, "x.cpg")); string(cpg) != SHAPE_ENCODING {
		t.Fatalf("cpg = %q", cpg)
	}
}

func TestExportGeoJSONRoundTripCollection(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	in := []Feature{
		pointFeature(-117.1, 33.2, Attributes{"name": "p", "n": float64(1)}),
		{Geometry: orb.LineString{{-118.2, 34.0}, {-117.5, 34.4}}, Attributes: Attributes{"name": "l", "ok": true}},
		{Geometry: orb.Polygon{{{-118, 34}, {-117, 34}, {-117, 35}, {-118, 34}}}, Attributes: Attributes{"name": "a"}},
	}
	s := newLoadedStore(t, g, in...)
	a, err := g.Export(s, FormatGeoJSON, CRS_UTM_11N)
	if err != nil {
		t.Fatal(err)
	}
	back := NewFeatureStore(g)
	if _, err = g.LoadUpload(back, EXPORT_GEOJSON_NAME, a.Data); err != nil {
		t.Fatal(err)
	}
	if back.Len() != len(in) || back.Crs() != CRS_UTM_11N {
		t.Fatalf("len = %d, crs = %s", back.Len(), back.Crs())
	}
	fc, err := back.SnapshotIn(CRS_WGS84)
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range fc.Features {
		if d := maxDeviation(in[i].Geometry, f.Geometry); d > 1e-6 {
			t.Fatalf("feature %d: deviation %g", i, d)
		}
		for k, v := range in[i].Attributes {
			if f.Attributes[k] != v {
				t.Fatalf("feature %d: %s = %v, want %v", i, k, f.Attributes[k], v)
			}
		}
		if len(f.Attributes) != len(in[i].Attributes) {
			t.Fatalf("feature %d: attrs = %v", i, f.Attributes)
		}
	}
}
