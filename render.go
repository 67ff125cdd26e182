package geoedit

import (
	"encoding/json"
	"fmt"
	"strings"
)

type BaseMap string

const (
	BaseMapOSM     BaseMap = "OpenStreetMap"
	BaseMapTerrain BaseMap = "Terrain"
	BaseMapToner   BaseMap = "Toner"
	BaseMapLight   BaseMap = "Light"
	BaseMapDark    BaseMap = "Dark"
)

type tileSource struct {
	url         string
	attribution string
}

var (
	BaseMaps = []BaseMap{BaseMapOSM, BaseMapTerrain, BaseMapToner, BaseMapLight, BaseMapDark}

	tileSources = map[BaseMap]tileSource{
		BaseMapOSM: {
			"https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			"&copy; OpenStreetMap contributors",
		},
		BaseMapTerrain: {
			"https://tiles.stadiamaps.com/tiles/stamen_terrain/{z}/{x}/{y}{r}.png",
			"&copy; Stadia Maps &copy; Stamen Design &copy; OpenStreetMap contributors",
		},
		BaseMapToner: {
			"https://tiles.stadiamaps.com/tiles/stamen_toner/{z}/{x}/{y}{r}.png",
			"&copy; Stadia Maps &copy; Stamen Design &copy; OpenStreetMap contributors",
		},
		BaseMapLight: {
			"https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
			"&copy; OpenStreetMap contributors &copy; CARTO",
		},
		BaseMapDark: {
			"https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
			"&copy; OpenStreetMap contributors &copy; CARTO",
		},
	}

	baseMapAliases = map[string]BaseMap{
		"stamen terrain":      BaseMapTerrain,
		"stamen toner":        BaseMapToner,
		"cartodb positron":    BaseMapLight,
		"cartodb dark_matter": BaseMapDark,
	}

	DefaultStyle = Style{
		FillColor:   "blue",
		Color:       "blue",
		Weight:      2,
		FillOpacity: 0.4,
	}
)

// 底图名称，兼容folium的瓦片名写法
func ParseBaseMap(s string) (BaseMap, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return BaseMapOSM, nil
	}
	for _, b := range BaseMaps {
		if strings.EqualFold(name, string(b)) {
			return b, nil
		}
	}
	if b, ok := baseMapAliases[strings.ToLower(name)]; ok {
		return b, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownBaseMap, s)
}

type Style struct {
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

// 渲染端所需的地图视图
type MapView struct {
	BaseMap     BaseMap         `json:"baseMap"`
	Tiles       string          `json:"tiles"`
	Attribution string          `json:"attribution"`
	Center      [2]float64      `json:"center"` // [lat, lon]
	Zoom        int             `json:"zoom"`
	Bounds      *[2][2]float64  `json:"bounds,omitempty"` // [[minLat, minLon], [maxLat, maxLon]]
	Style       Style           `json:"style"`
	Tooltip     []string        `json:"tooltip,omitempty"`
	Count       int             `json:"count"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// 生成地图视图：要素统一转到展示坐标系，有数据时视野适配数据范围
func BuildMapView(store *FeatureStore, baseMap BaseMap) (mv *MapView, err error) {
	src, ok := tileSources[baseMap]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnknownBaseMap, baseMap)
		return
	}
	mv = &MapView{
		BaseMap:     baseMap,
		Tiles:       src.url,
		Attribution: src.attribution,
		Zoom:        DEFAULT_ZOOM,
		Style:       DefaultStyle,
	}
	if store.IsEmpty() {
		return
	}
	fc, err := store.SnapshotIn(DISPLAY_CRS)
	if err != nil {
		mv = nil
		return
	}
	if mv.Data, err = WriteGeoJSON(fc); err != nil {
		mv = nil
		return
	}
	mv.Count = fc.Len()
	mv.Tooltip = TooltipFields(fc.Columns)
	if b, ok := CollectionBound(fc); ok {
		mv.Bounds = &[2][2]float64{{b.Min[1], b.Min[0]}, {b.Max[1], b.Max[0]}}
		center, zoom := FitBound(b)
		mv.Center = [2]float64{center[1], center[0]}
		mv.Zoom = zoom
	}
	return
}

// 悬浮提示展示前三个属性列
func TooltipFields(columns []string) []string {
	n := len(columns)
	if n > TOOLTIP_FIELD_COUNT {
		n = TOOLTIP_FIELD_COUNT
	}
	return append([]string(nil), columns[:n]...)
}

// 属性表：各属性列 + 几何类型
type FeatureTable struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

const geometryTypeColumn = "geometry_type"

func BuildFeatureTable(store *FeatureStore) *FeatureTable {
	fc := store.Snapshot()
	t := &FeatureTable{
		Columns: append(fc.Columns, geometryTypeColumn),
		Rows:    make([][]interface{}, 0, fc.Len()),
	}
	for _, f := range fc.Features {
		row := make([]interface{}, 0, len(t.Columns))
		for _, c := range fc.Columns {
			row = append(row, f.Attributes[c])
		}
		t.Rows = append(t.Rows, append(row, GeometryType(f.Geometry)))
	}
	return t
}
