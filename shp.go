package geoedit

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wgdzlh/geoedit/log"
	"github.com/wgdzlh/geoedit/utils"

	"github.com/lukeroth/gdal"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// 导出shp压缩包中每个shp必须包含的文件
var bundleExts = []string{FILE_EXT_SHP, FILE_EXT_SHX, FILE_EXT_DBF, FILE_EXT_PRJ, FILE_EXT_CPG}

func init() {
	// dbf文本按原始字节读出，由cpg确定编码后自行转码
	gdal.CPLSetConfigOption("SHAPE_ENCODING", "")
}

// 解析上传的shp压缩包
func (g *GdalToolbox) ReadShapefileZip(data []byte) (ds *Dataset, err error) {
	dir, err := utils.GetUniqSubDir(g.tmpDir)
	if err != nil {
		return
	}
	defer os.RemoveAll(dir)
	shp, cpg, err := utils.GetShpInZip(data, dir)
	if err != nil {
		if errors.Is(err, utils.ErrNoShpInZip) {
			err = ErrMissingPrimaryFile
		} else {
			err = fmt.Errorf("%w: %v", ErrMissingPrimaryFile, err)
		}
		return
	}
	return g.ReadShapefile(shp, cpg)
}

// 从shp文件中读取全部要素，cpg为声明的dbf编码（为空时使用默认编码）
func (g *GdalToolbox) ReadShapefile(shp, cpg string) (ds *Dataset, err error) {
	log.Info(g.logTag+"start read shp", zap.String("shp", shp), zap.String("cpg", cpg))
	if !hasSidecar(shp, FILE_EXT_PRJ) {
		err = fmt.Errorf("%w: shapefile has no %s", ErrUnknownCrs, FILE_EXT_PRJ)
		return
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	src, ok := driver.Open(shp, 0)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrInvalidGeometry, ErrGdalDriverOpen)
		return
	}
	defer src.Destroy()
	layer := src.LayerByIndex(0)
	crs, err := g.crsIdOf(layer.SpatialReference())
	if err != nil {
		return
	}
	if cpg == "" {
		cpg = g.dbfEnc
	}
	enc, err := utils.LookupEncoding(cpg)
	if err != nil {
		log.Warn(g.logTag+"unknown cpg, fallback to default", zap.String("cpg", cpg), zap.Error(err))
		if enc, err = utils.LookupEncoding(DEFAULT_DBF_ENCODING); err != nil {
			return
		}
	}
	var (
		def     = layer.Definition()
		nField  = def.FieldCount()
		names   = make([]string, nField)
		types   = make([]gdal.FieldType, nField)
		feature *gdal.Feature
		geom    orb.Geometry
		skipped int
		e       error
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for i := 0; i < nField; i++ {
		fd := def.FieldDefinition(i)
		if names[i], err = utils.DecodeText(fd.Name(), enc); err != nil {
			err = fmt.Errorf("%w: field name: %v", ErrInvalidGeometry, err)
			return
		}
		types[i] = fd.Type()
	}
	ds = &Dataset{
		Columns: names,
		Crs:     crs,
		Source:  utils.GetFilenameWithoutExt(shp),
	}
	for {
		if feature = layer.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		geo := feature.Geometry()
		if geo.WKBSize() == 0 {
			skipped++
			continue
		}
		if geom, e = g.fromGdal(geo); e != nil {
			log.Error(g.logTag+"err in wkb convert", zap.Int64("fid", feature.FID()), zap.Error(e))
			ds = nil
			err = e
			return
		}
		attrs := make(Attributes, nField)
		for i, name := range names {
			if attrs[name], err = fieldValue(feature, i, types[i], enc); err != nil {
				ds = nil
				err = fmt.Errorf("%w: field %s: %v", ErrInvalidGeometry, name, err)
				return
			}
		}
		ds.Features = append(ds.Features, Feature{Geometry: geom, Attributes: attrs})
	}
	log.Info(g.logTag+"got features from shp", zap.String("shp", shp), zap.String("crs", crs),
		zap.Int("cnt", len(ds.Features)), zap.Int("nullShapes", skipped))
	if len(ds.Features) == 0 {
		ds = nil
		err = fmt.Errorf("%w: shapefile has no shapes", ErrInvalidGeometry)
	}
	return
}

// 同名配套文件是否存在（扩展名大小写均可）
func hasSidecar(shp, ext string) bool {
	prefix := strings.TrimSuffix(shp, filepath.Ext(shp))
	for _, e := range []string{ext, strings.ToUpper(ext)} {
		if _, err := os.Stat(prefix + e); err == nil {
			return true
		}
	}
	return false
}

func fieldValue(feature *gdal.Feature, idx int, ft gdal.FieldType, enc encoding.Encoding) (v interface{}, err error) {
	if !feature.IsFieldSetAndNotNull(idx) {
		return
	}
	switch ft {
	case gdal.FT_Integer:
		v = int64(feature.FieldAsInteger(idx))
	case gdal.FT_Integer64:
		v = feature.FieldAsInteger64(idx)
	case gdal.FT_Real:
		v = feature.FieldAsFloat64(idx)
	default:
		v, err = utils.DecodeText(feature.FieldAsString(idx), enc)
	}
	return
}

// 将要素集合写为shp压缩包；不同形状族分别写入各自的shp，任一要素写入失败则整体失败
func (g *GdalToolbox) WriteShapefileZip(fc *FeatureCollection) (data []byte, err error) {
	if fc.Len() == 0 {
		err = ErrEmptyStoreExport
		return
	}
	dir, err := utils.GetUniqSubDir(g.tmpDir)
	if err != nil {
		return
	}
	defer os.RemoveAll(dir)
	var (
		order  []ShapeFamily
		groups = map[ShapeFamily][]Feature{}
	)
	for _, f := range fc.Features {
		fam := familyOf(f.Geometry)
		if fam == FamilyUnknown {
			err = fmt.Errorf("%w: unsupported geometry type %s", ErrInvalidGeometry, GeometryType(f.Geometry))
			return
		}
		if _, ok := groups[fam]; !ok {
			order = append(order, fam)
		}
		groups[fam] = append(groups[fam], f)
	}
	var files []string
	for _, fam := range order {
		base := EXPORT_SHP_BASE
		if len(order) > 1 {
			base += "_" + fam.String()
		}
		shp := filepath.Join(dir, base+FILE_EXT_SHP)
		if err = g.WriteShapefile(shp, fc.Crs, fc.Columns, groups[fam]); err != nil {
			return
		}
		var bundle []string
		if bundle, err = completeBundle(shp); err != nil {
			return
		}
		files = append(files, bundle...)
	}
	if data, err = utils.ZipFiles(files); err != nil {
		return
	}
	log.Info(g.logTag+"shp zip created", zap.Int("shps", len(order)), zap.Int("files", len(files)), zap.Int("size", len(data)))
	return
}

// 检查shp配套文件是否齐全，缺少cpg时补写
func completeBundle(shp string) (files []string, err error) {
	prefix := shp[:len(shp)-len(FILE_EXT_SHP)]
	for _, ext := range bundleExts {
		path := prefix + ext
		if _, e := os.Stat(path); e != nil {
			if ext != FILE_EXT_CPG {
				err = fmt.Errorf("%w: missing %s", ErrIncompleteBundle, filepath.Base(path))
				return
			}
			if err = os.WriteFile(path, []byte(SHAPE_ENCODING), 0o644); err != nil {
				return
			}
		}
		files = append(files, path)
	}
	return
}

// 将同一形状族的要素写入shp
func (g *GdalToolbox) WriteShapefile(shp, crs string, columns []string, features []Feature) (err error) {
	_, ref, err := g.resolve(crs)
	if err != nil {
		return
	}
	if len(features) == 0 {
		err = ErrEmptyStoreExport
		return
	}
	geoType := layerGeoType(features)
	if geoType == gdal.GT_Unknown {
		err = fmt.Errorf("%w: %s", ErrGdalWrongGeoType, GeometryType(features[0].Geometry))
		return
	}
	fam := familyOf(features[0].Geometry)
	for i, f := range features {
		if familyOf(f.Geometry) != fam {
			err = fmt.Errorf("%w: feature %d is %s in a %s layer", ErrGdalWrongGeoType, i, GeometryType(f.Geometry), fam)
			return
		}
	}
	log.Info(g.logTag+"output shp files", zap.String("shp", shp), zap.String("crs", crs))
	g.rLock.Lock()
	defer g.rLock.Unlock()
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	layer := ds.CreateLayer(utils.GetFilenameWithoutExt(shp), ref, geoType, []string{ENCODING_OPTION})
	kinds, err := initShpFields(layer, columns, features)
	if err != nil {
		return
	}
	var (
		def     = layer.Definition()
		feature gdal.Feature
		geo     gdal.Geometry
	)
	for i, f := range features {
		feature = def.Create()
		err = fillFeature(feature, int64(i), f, columns, kinds)
		if err == nil {
			if geo, err = g.toGdal(layerGeometry(f.Geometry, geoType), ref); err == nil {
				if err = feature.SetGeometryDirectly(geo); err != nil {
					geo.Destroy()
				}
			}
		}
		if err == nil {
			err = layer.Create(feature)
		}
		feature.Destroy()
		if err != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Int("idx", i), zap.Error(err))
			err = fmt.Errorf("%w: feature %d: %v", ErrIncompleteBundle, i, err)
			return
		}
	}
	log.Info(g.logTag+"shp files created", zap.String("shp", shp), zap.Int("total", len(features)))
	return
}

func layerGeoType(features []Feature) gdal.GeometryType {
	switch familyOf(features[0].Geometry) {
	case FamilyPoint:
		for _, f := range features {
			if _, ok := f.Geometry.(orb.MultiPoint); ok {
				return gdal.GT_MultiPoint
			}
		}
		return gdal.GT_Point
	case FamilyLine:
		return gdal.GT_LineString
	case FamilyPolygon:
		return gdal.GT_Polygon
	}
	return gdal.GT_Unknown
}

// 多点图层中的单点需升为多点
func layerGeometry(geom orb.Geometry, geoType gdal.GeometryType) orb.Geometry {
	if p, ok := geom.(orb.Point); ok && geoType == gdal.GT_MultiPoint {
		return orb.MultiPoint{p}
	}
	return geom
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindInteger
	kindReal
)

// 按列值推断字段类型：全为整数为整型，全为数值为浮点，否则为字符串
func inferFieldKind(column string, features []Feature) fieldKind {
	kind := kindInteger
	seen := false
	for _, f := range features {
		v, ok := f.Attributes[column]
		if !ok || v == nil {
			continue
		}
		seen = true
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
		case float32:
			if float64(n) != math.Trunc(float64(n)) {
				kind = kindReal
			}
		case float64:
			if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
				kind = kindReal
			}
		default:
			return kindString
		}
	}
	if !seen {
		return kindString
	}
	return kind
}

func initShpFields(layer gdal.Layer, columns []string, features []Feature) (kinds []fieldKind, err error) {
	kinds = make([]fieldKind, len(columns))
	for i, col := range columns {
		kinds[i] = inferFieldKind(col, features)
		var fd gdal.FieldDefinition
		switch kinds[i] {
		case kindInteger:
			fd = gdal.CreateFieldDefinition(col, gdal.FT_Integer64)
		case kindReal:
			fd = gdal.CreateFieldDefinition(col, gdal.FT_Real)
		default:
			fd = gdal.CreateFieldDefinition(col, gdal.FT_String)
			fd.SetWidth(SHP_FIELD_WIDTH)
		}
		err = layer.CreateField(fd, false)
		fd.Destroy()
		if err != nil {
			err = fmt.Errorf("%w: field %s: %v", ErrIncompleteBundle, col, err)
			return
		}
	}
	return
}

func fillFeature(feature gdal.Feature, fid int64, f Feature, columns []string, kinds []fieldKind) (err error) {
	if err = feature.SetFID(fid); err != nil {
		return
	}
	for i, col := range columns {
		v, ok := f.Attributes[col]
		if !ok || v == nil {
			continue
		}
		switch kinds[i] {
		case kindInteger:
			feature.SetFieldInteger64(i, toInt64(v))
		case kindReal:
			feature.SetFieldFloat64(i, toFloat64(v))
		default:
			feature.SetFieldString(i, formatValue(v))
		}
	}
	return
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return float64(toInt64(v))
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
