package geoedit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/wgdzlh/geoedit/log"

	"github.com/lukeroth/gdal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

type GdalToolbox struct {
	refMap map[string]gdal.SpatialReference
	rLock  sync.Mutex
	tmpDir string
	dbfEnc string
	logTag string
}

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var _ Reprojector = (*GdalToolbox)(nil)

// 初始化GDAL工具箱，tmpDir为可选的临时目录路径（未提供的话为系统临时目录）
func NewGdalToolbox(tmpDir ...string) *GdalToolbox {
	g := &GdalToolbox{
		refMap: map[string]gdal.SpatialReference{},
		dbfEnc: DEFAULT_DBF_ENCODING,
		logTag: "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

// 设置无cpg文件时dbf属性文本的编码
func (g *GdalToolbox) SetDbfEncoding(enc string) *GdalToolbox {
	if enc != "" {
		g.dbfEnc = enc
	}
	return g
}

// 获取坐标系标识对应的空间参考（可复用，故无需回收）
func (g *GdalToolbox) getCrsRef(norm string) (ref gdal.SpatialReference, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[norm]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if def, ok := crsRegistry[norm]; ok && def.proj4 != "" {
		err = ref.FromProj4(def.proj4)
	} else {
		_, code, _ := strings.Cut(norm, ":")
		srid, _ := strconv.Atoi(code)
		err = ref.FromEPSG(srid)
	}
	if err != nil {
		log.Error(g.logTag+"set ref crs failed", zap.String("crs", norm), zap.Error(err))
		ref.Destroy()
		err = fmt.Errorf("%w: %s", ErrUnsupportedCrs, norm)
		return
	}
	// 数据轴次序固定为(经度,纬度)（传统GIS坐标序），避免转换时次序倒置
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[norm] = ref
	return
}

func (g *GdalToolbox) resolve(crs string) (norm string, ref gdal.SpatialReference, err error) {
	if norm, err = NormalizeCrs(crs); err != nil {
		return
	}
	ref, err = g.getCrsRef(norm)
	return
}

// 检查坐标系标识能否解析
func (g *GdalToolbox) CheckCrs(crs string) (err error) {
	_, _, err = g.resolve(crs)
	return
}

// 从空间参考中识别坐标系标识
func (g *GdalToolbox) crsIdOf(sp gdal.SpatialReference) (id string, err error) {
	wkt, e := sp.ToWKT()
	if e != nil || wkt == "" {
		err = fmt.Errorf("%w: missing spatial reference", ErrUnknownCrs)
		return
	}
	log.Debug(g.logTag+"spatial ref attrs", zap.String("attr", wkt))
	node := "GEOGCS"
	if sp.IsProjected() {
		node = "PROJCS"
	}
	auth, code := sp.AuthorityName(node), sp.AuthorityCode(node)
	if code == "" && sp.AutoIdentifyEPSG() == nil {
		auth, code = sp.AuthorityName(node), sp.AuthorityCode(node)
	}
	if code != "" {
		if auth == "" {
			auth = CRS_AUTH_EPSG
		}
		id, err = NormalizeCrs(auth + ":" + code)
		if err != nil {
			err = fmt.Errorf("%w: %s:%s", ErrUnknownCrs, auth, code)
		}
		log.Info(g.logTag+"got crs from sp", zap.String("id", id))
		return
	}
	if strings.Contains(wkt, "CGCS_2000") {
		id = "EPSG:4490"
		return
	}
	// ESRI风格的prj不带AUTHORITY，与登记的proj4定义逐个比对
	for norm, def := range crsRegistry {
		if def.proj4 == "" {
			continue
		}
		ref, e := g.getCrsRef(norm)
		if e != nil {
			continue
		}
		g.rLock.Lock()
		same := sp.IsSame(ref)
		g.rLock.Unlock()
		if same {
			id = norm
			return
		}
	}
	err = fmt.Errorf("%w: unidentified spatial reference", ErrUnknownCrs)
	return
}

func (g *GdalToolbox) parseWKB(raw []byte, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKB(raw, ref, len(raw))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return
}

// ref为缓存的空间参考，调用方需持有rLock
func (g *GdalToolbox) toGdal(geom orb.Geometry, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	raw, err := wkb.Marshal(geom)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		return
	}
	return g.parseWKB(raw, ref)
}

func (g *GdalToolbox) fromGdal(geo gdal.Geometry) (ret orb.Geometry, err error) {
	geo.FlattenTo2D()
	raw, err := geo.ToWKB()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		return
	}
	if ret, err = wkb.Unmarshal(raw); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return
}

// 坐标系转换：保持几何类型与坐标点数；源、目标坐标系相同时原样返回副本
func (g *GdalToolbox) Reproject(geom orb.Geometry, fromCrs, toCrs string) (ret orb.Geometry, err error) {
	if geom == nil {
		err = fmt.Errorf("%w: missing geometry", ErrInvalidGeometry)
		return
	}
	from, fRef, err := g.resolve(fromCrs)
	if err != nil {
		return
	}
	to, tRef, err := g.resolve(toCrs)
	if err != nil {
		return
	}
	if from == to {
		ret = orb.Clone(geom)
		return
	}
	if dom := g.domainOf(to, tRef); dom != nil {
		ll := geom
		if from != CRS_WGS84 {
			var wRef gdal.SpatialReference
			if wRef, err = g.getCrsRef(CRS_WGS84); err != nil {
				return
			}
			if ll, err = g.transform(geom, fRef, wRef); err != nil {
				return
			}
		}
		if err = walkPoints(ll, func(p orb.Point) error {
			if !dom.Contains(p) {
				return fmt.Errorf("%w: %v not within %s", ErrProjectionDomain, p, to)
			}
			return nil
		}); err != nil {
			return
		}
	}
	return g.transform(geom, fRef, tRef)
}

// 目标坐标系的经纬度有效范围：优先取登记值，未登记的UTM带按带号推算，nil为不限
func (g *GdalToolbox) domainOf(norm string, ref gdal.SpatialReference) *orb.Bound {
	if dom := crsDomain(norm); dom != nil {
		return dom
	}
	g.rLock.Lock()
	zone, _ := ref.UTMZone()
	g.rLock.Unlock()
	return utmDomain(zone)
}

// 缓存的空间参考在多个会话间共享，使用期间持有rLock
func (g *GdalToolbox) transform(geom orb.Geometry, fRef, tRef gdal.SpatialReference) (ret orb.Geometry, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	geo, err := g.toGdal(geom, fRef)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if err = geo.TransformTo(tRef); err != nil {
		log.Warn(g.logTag+"geo transform failed", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrProjectionDomain, err)
		return
	}
	if ret, err = g.fromGdal(geo); err != nil {
		return
	}
	if ret.GeoJSONType() != geom.GeoJSONType() || pointCount(ret) != pointCount(geom) {
		err = fmt.Errorf("%w: transform changed geometry shape", ErrProjectionDomain)
		return
	}
	err = walkPoints(ret, func(p orb.Point) error {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return fmt.Errorf("%w: non-finite result", ErrProjectionDomain)
		}
		return nil
	})
	return
}
