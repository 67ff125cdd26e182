package geoedit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/geoedit/log"

	"go.uber.org/zap"
)

// 按扩展名解析上传文件：.zip为shp压缩包，.geojson/.json为GeoJSON
func (g *GdalToolbox) ReadUpload(name string, data []byte) (ds *Dataset, err error) {
	log.Info(g.logTag+"read upload", zap.String("name", name), zap.Int("size", len(data)))
	switch strings.ToLower(filepath.Ext(name)) {
	case FILE_EXT_ZIP:
		ds, err = g.ReadShapefileZip(data)
	case FILE_EXT_GEOJSON, FILE_EXT_JSON:
		if ds, err = ReadGeoJSON(data); err == nil {
			ds.Source = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		log.Warn(g.logTag+"upload rejected", zap.String("name", name), zap.Error(err))
	}
	return
}

// 解析上传文件并加载到要素集合
func (g *GdalToolbox) LoadUpload(store *FeatureStore, name string, data []byte) (ds *Dataset, err error) {
	if ds, err = g.ReadUpload(name, data); err != nil {
		return
	}
	if err = store.LoadFrom(ds.Features, ds.Crs, ds.Columns...); err != nil {
		ds = nil
	}
	return
}
