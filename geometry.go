package geoedit

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// 形状族，一个shp文件只能容纳一个形状族
type ShapeFamily int

const (
	FamilyUnknown ShapeFamily = iota
	FamilyPoint
	FamilyLine
	FamilyPolygon
)

func (f ShapeFamily) String() string {
	switch f {
	case FamilyPoint:
		return "point"
	case FamilyLine:
		return "line"
	case FamilyPolygon:
		return "polygon"
	}
	return "unknown"
}

func familyOf(g orb.Geometry) ShapeFamily {
	switch g.(type) {
	case orb.Point, orb.MultiPoint:
		return FamilyPoint
	case orb.LineString, orb.MultiLineString:
		return FamilyLine
	case orb.Polygon, orb.MultiPolygon:
		return FamilyPolygon
	}
	return FamilyUnknown
}

// 几何类型名（GeoJSON命名）
func GeometryType(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return g.GeoJSONType()
}

// 校验几何并返回规范化后的副本：多边形环未闭合时追加首点闭合
func NormalizeGeometry(g orb.Geometry) (ret orb.Geometry, err error) {
	switch t := g.(type) {
	case nil:
		err = fmt.Errorf("%w: missing geometry", ErrInvalidGeometry)
	case orb.Point:
		if err = checkPoint(t); err == nil {
			ret = t
		}
	case orb.MultiPoint:
		if len(t) == 0 {
			err = fmt.Errorf("%w: empty multipoint", ErrInvalidGeometry)
			return
		}
		for _, p := range t {
			if err = checkPoint(p); err != nil {
				return
			}
		}
		ret = t.Clone()
	case orb.LineString:
		ret, err = normalizeLine(t)
	case orb.MultiLineString:
		if len(t) == 0 {
			err = fmt.Errorf("%w: empty multilinestring", ErrInvalidGeometry)
			return
		}
		ml := make(orb.MultiLineString, len(t))
		for i, ls := range t {
			if ml[i], err = normalizeLine(ls); err != nil {
				return
			}
		}
		ret = ml
	case orb.Polygon:
		ret, err = normalizePolygon(t)
	case orb.MultiPolygon:
		if len(t) == 0 {
			err = fmt.Errorf("%w: empty multipolygon", ErrInvalidGeometry)
			return
		}
		mp := make(orb.MultiPolygon, len(t))
		for i, p := range t {
			if mp[i], err = normalizePolygon(p); err != nil {
				return
			}
		}
		ret = mp
	default:
		err = fmt.Errorf("%w: unsupported geometry type %s", ErrInvalidGeometry, g.GeoJSONType())
	}
	return
}

func checkPoint(p orb.Point) error {
	if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
		return fmt.Errorf("%w: non-finite coordinate %v", ErrInvalidGeometry, p)
	}
	return nil
}

func normalizeLine(ls orb.LineString) (orb.LineString, error) {
	if len(ls) < MIN_LINE_VERTICES {
		return nil, fmt.Errorf("%w: line needs at least %d vertices, got %d", ErrInvalidGeometry, MIN_LINE_VERTICES, len(ls))
	}
	for _, p := range ls {
		if err := checkPoint(p); err != nil {
			return nil, err
		}
	}
	return ls.Clone(), nil
}

func normalizePolygon(p orb.Polygon) (orb.Polygon, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: polygon without rings", ErrInvalidGeometry)
	}
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		ring, err := normalizeRing(r)
		if err != nil {
			return nil, err
		}
		out[i] = ring
	}
	return out, nil
}

func normalizeRing(r orb.Ring) (orb.Ring, error) {
	n := len(r)
	if r.Closed() {
		n--
	}
	if n < MIN_POLYGON_VERTEX {
		return nil, fmt.Errorf("%w: ring needs at least %d vertices, got %d", ErrInvalidGeometry, MIN_POLYGON_VERTEX, n)
	}
	for _, p := range r {
		if err := checkPoint(p); err != nil {
			return nil, err
		}
	}
	out := make(orb.Ring, len(r), len(r)+1)
	copy(out, r)
	if !out.Closed() {
		out = append(out, out[0])
	}
	return out, nil
}

// 遍历几何中的所有坐标点，fn返回错误时中止
func walkPoints(g orb.Geometry, fn func(orb.Point) error) error {
	switch t := g.(type) {
	case orb.Point:
		return fn(t)
	case orb.MultiPoint:
		return walkSeq(t, fn)
	case orb.LineString:
		return walkSeq(t, fn)
	case orb.Ring:
		return walkSeq(t, fn)
	case orb.MultiLineString:
		for _, ls := range t {
			if err := walkSeq(ls, fn); err != nil {
				return err
			}
		}
	case orb.Polygon:
		for _, r := range t {
			if err := walkSeq(r, fn); err != nil {
				return err
			}
		}
	case orb.MultiPolygon:
		for _, p := range t {
			for _, r := range p {
				if err := walkSeq(r, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func walkSeq[S ~[]orb.Point](s S, fn func(orb.Point) error) error {
	for _, p := range s {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// 坐标点总数
func pointCount(g orb.Geometry) (n int) {
	_ = walkPoints(g, func(orb.Point) error {
		n++
		return nil
	})
	return
}
