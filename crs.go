package geoedit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// 投影选项（界面下拉列表）
type CrsOption struct {
	Label string `json:"label"`
	Id    string `json:"id"`
}

type crsDef struct {
	proj4  string     // 无EPSG编码的坐标系使用proj4定义
	domain *orb.Bound // 经纬度有效范围，nil为全球
}

var (
	ProjectionOptions = []CrsOption{
		{"WGS84 (EPSG:4326)", CRS_WGS84},
		{"Web Mercator (EPSG:3857)", CRS_WEB_MERC},
		{"UTM Zone 11N (EPSG:32611)", CRS_UTM_11N},
		{"Robinson (ESRI:54030)", CRS_ROBINSON},
	}

	crsRegistry = map[string]crsDef{
		CRS_WEB_MERC: {
			domain: &orb.Bound{Min: orb.Point{-180, -WEB_MERC_MAXLAT}, Max: orb.Point{180, WEB_MERC_MAXLAT}},
		},
		CRS_UTM_11N: {
			domain: utmDomain(11),
		},
		CRS_ROBINSON: {
			proj4: "+proj=robin +lon_0=0 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
		},
		CRS_MOLLWEIDE: {
			proj4: "+proj=moll +lon_0=0 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs",
		},
	}
)

// 规范化坐标系标识：EPSG:xxxx / ESRI:xxxx（大小写不敏感），兼容OGC URN写法
func NormalizeCrs(id string) (norm string, err error) {
	s := strings.TrimSpace(id)
	if s == "" {
		err = fmt.Errorf("%w: empty identifier", ErrUnsupportedCrs)
		return
	}
	if len(s) > len(CRS_URN_PREFIX) && strings.EqualFold(s[:len(CRS_URN_PREFIX)], CRS_URN_PREFIX) {
		// urn:ogc:def:crs:EPSG::3857 或 urn:ogc:def:crs:EPSG:9.9:3857
		parts := strings.Split(s[len(CRS_URN_PREFIX):], ":")
		if len(parts) < 2 {
			err = fmt.Errorf("%w: %s", ErrUnsupportedCrs, id)
			return
		}
		s = parts[0] + ":" + parts[len(parts)-1]
	}
	// OGC:CRS84即经度在前的WGS84
	if s == CRS_NAME_CRS84 || strings.HasSuffix(strings.ToUpper(s), ":"+CRS_NAME_CRS84) {
		norm = CRS_WGS84
		return
	}
	auth, code, ok := strings.Cut(s, ":")
	if !ok {
		err = fmt.Errorf("%w: %s", ErrUnsupportedCrs, id)
		return
	}
	auth = strings.ToUpper(strings.TrimSpace(auth))
	n, e := strconv.Atoi(strings.TrimSpace(code))
	if e != nil || n <= 0 {
		err = fmt.Errorf("%w: %s", ErrUnsupportedCrs, id)
		return
	}
	code = strconv.Itoa(n) // EPSG:04326 -> EPSG:4326
	switch auth {
	case CRS_AUTH_EPSG:
	case CRS_AUTH_ESRI:
		if _, ok := crsRegistry[auth+":"+code]; !ok {
			err = fmt.Errorf("%w: %s", ErrUnsupportedCrs, id)
			return
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedCrs, id)
		return
	}
	norm = auth + ":" + code
	return
}

// 两个标识是否指同一坐标系，任一无法解析则为否
func SameCrs(a, b string) bool {
	na, e1 := NormalizeCrs(a)
	nb, e2 := NormalizeCrs(b)
	return e1 == nil && e2 == nil && na == nb
}

func crsDomain(norm string) *orb.Bound {
	if def, ok := crsRegistry[norm]; ok {
		return def.domain
	}
	return nil
}

// UTM带的经纬度有效范围：中央经线两侧各9°（带宽两侧各扩一带），纬度-80°~84°
func utmDomain(zone int) *orb.Bound {
	if zone < 1 || zone > 60 {
		return nil
	}
	lon0 := float64(zone*6 - 183)
	return &orb.Bound{Min: orb.Point{lon0 - UTM_HALF_WIDTH, UTM_MIN_LAT}, Max: orb.Point{lon0 + UTM_HALF_WIDTH, UTM_MAX_LAT}}
}

// 命名坐标系的OGC URN，用于GeoJSON的crs成员
func crsURN(norm string) string {
	auth, code, _ := strings.Cut(norm, ":")
	return CRS_URN_PREFIX + auth + "::" + code
}
