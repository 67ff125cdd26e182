package geoedit

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	mercWorldWidth = 2 * 20037508.342789244
	viewportWidth  = 800
	viewportHeight = 600
)

// 要素集合的外包范围
func CollectionBound(fc *FeatureCollection) (b orb.Bound, ok bool) {
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !ok {
			b, ok = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return
}

func clampLat(p orb.Point) orb.Point {
	p[1] = math.Max(-WEB_MERC_MAXLAT, math.Min(WEB_MERC_MAXLAT, p[1]))
	return p
}

// 经纬度范围在Web墨卡托下的中心点及适配视口的缩放级别
func FitBound(b orb.Bound) (center orb.Point, zoom int) {
	lo := project.WGS84.ToMercator(clampLat(b.Min))
	hi := project.WGS84.ToMercator(clampLat(b.Max))
	center = project.Mercator.ToWGS84(orb.Point{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2})
	w, h := hi[0]-lo[0], hi[1]-lo[1]
	if w <= 0 && h <= 0 {
		zoom = MAX_FIT_ZOOM
		return
	}
	z := math.Inf(1)
	if w > 0 {
		z = math.Log2(mercWorldWidth * viewportWidth / (w * TILE_SIZE))
	}
	if h > 0 {
		z = math.Min(z, math.Log2(mercWorldWidth*viewportHeight/(h*TILE_SIZE)))
	}
	zoom = int(math.Floor(z))
	if zoom < 0 {
		zoom = 0
	} else if zoom > MAX_FIT_ZOOM {
		zoom = MAX_FIT_ZOOM
	}
	return
}
