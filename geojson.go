package geoedit

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/wgdzlh/geoedit/log"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

type geoJSONHead struct {
	Type string `json:"type"`
	Crs  *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// 解析GeoJSON（FeatureCollection、Feature或单个Geometry），坐标系默认为EPSG:4326，
// 旧式crs成员指定了坐标系时以其为准
func ReadGeoJSON(data []byte) (ds *Dataset, err error) {
	var head geoJSONHead
	if err = json.Unmarshal(data, &head); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		return
	}
	ds = &Dataset{Crs: GEOJSON_CRS}
	if head.Crs != nil && head.Crs.Properties.Name != "" {
		if ds.Crs, err = NormalizeCrs(head.Crs.Properties.Name); err != nil {
			ds = nil
			err = fmt.Errorf("%w: %s", ErrUnknownCrs, head.Crs.Properties.Name)
			return
		}
	}
	var features []*geojson.Feature
	switch head.Type {
	case "FeatureCollection":
		var fc *geojson.FeatureCollection
		if fc, err = geojson.UnmarshalFeatureCollection(data); err != nil {
			break
		}
		features = fc.Features
	case "Feature":
		var f *geojson.Feature
		if f, err = geojson.UnmarshalFeature(data); err != nil {
			break
		}
		features = []*geojson.Feature{f}
	case "":
		err = fmt.Errorf("missing type member")
	default:
		var g *geojson.Geometry
		if g, err = geojson.UnmarshalGeometry(data); err != nil {
			break
		}
		features = []*geojson.Feature{geojson.NewFeature(g.Geometry())}
	}
	if err != nil {
		ds = nil
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		return
	}
	columns := map[string]struct{}{}
	ds.Features = make([]Feature, 0, len(features))
	for _, f := range features {
		attrs := make(Attributes, len(f.Properties))
		for k, v := range f.Properties {
			attrs[k] = scalarValue(v)
			columns[k] = struct{}{}
		}
		ds.Features = append(ds.Features, Feature{Geometry: f.Geometry, Attributes: attrs})
	}
	for k := range columns {
		ds.Columns = append(ds.Columns, k)
	}
	sort.Strings(ds.Columns)
	log.Info("GeoJSON: features parsed", zap.Int("cnt", len(ds.Features)), zap.String("crs", ds.Crs))
	return
}

// 嵌套对象、数组按JSON文本保存
func scalarValue(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, bool, float64, float32, int, int64, int32:
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

// 输出GeoJSON，非WGS84坐标系时写入命名crs成员
func WriteGeoJSON(fc *FeatureCollection) (data []byte, err error) {
	out := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		gf := geojson.NewFeature(f.Geometry)
		for k, v := range f.Attributes {
			gf.Properties[k] = v
		}
		out.Append(gf)
	}
	if fc.Crs != "" && fc.Crs != GEOJSON_CRS {
		out.ExtraMembers = geojson.Properties{
			"crs": map[string]interface{}{
				"type":       "name",
				"properties": map[string]interface{}{"name": crsURN(fc.Crs)},
			},
		}
	}
	if data, err = json.Marshal(out); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return
}
