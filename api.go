package geoedit

import (
	"sort"

	"github.com/paulmach/orb"
)

// 要素属性（标量：字符串、数值、布尔或空值）
type Attributes = map[string]interface{}

// 单个要素：几何 + 属性
type Feature struct {
	Geometry   orb.Geometry
	Attributes Attributes
}

// 要素集合，Columns为属性列顺序，Crs为所有几何所在坐标系
type FeatureCollection struct {
	Features []Feature
	Columns  []string
	Crs      string
}

// 读取上传文件得到的原始数据
type Dataset struct {
	Features []Feature
	Columns  []string
	Crs      string
	Source   string // 源文件名（shp取主文件名）
}

// 坐标转换网关
type Reprojector interface {
	CheckCrs(crs string) error
	Reproject(geom orb.Geometry, fromCrs, toCrs string) (orb.Geometry, error)
}

func (f Feature) Clone() Feature {
	c := Feature{}
	if f.Geometry != nil {
		c.Geometry = orb.Clone(f.Geometry)
	}
	if f.Attributes != nil {
		c.Attributes = make(Attributes, len(f.Attributes))
		for k, v := range f.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}

func (fc *FeatureCollection) Len() int {
	if fc == nil {
		return 0
	}
	return len(fc.Features)
}

// 按首次出现顺序合并属性列，未在given中列出的列按字典序追加
func mergeColumns(cur []string, given []string, features []Feature) []string {
	seen := make(map[string]struct{}, len(cur)+len(given))
	out := make([]string, 0, len(cur)+len(given))
	for _, c := range cur {
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range given {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	var extra []string
	for _, f := range features {
		for k := range f.Attributes {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
