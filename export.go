package geoedit

import (
	"fmt"
	"strings"

	"github.com/wgdzlh/geoedit/log"

	"go.uber.org/zap"
)

type ExportFormat string

const (
	FormatGeoJSON   ExportFormat = "geojson"
	FormatShapefile ExportFormat = "shapefile"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatGeoJSON, FormatShapefile:
		return f, nil
	case "shp", "zip":
		return FormatShapefile, nil
	case "json":
		return FormatGeoJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// 导出文件
type Artifact struct {
	Name        string
	ContentType string
	Crs         string
	Count       int
	Data        []byte
}

// 以指定格式、坐标系导出当前要素集合
func (g *GdalToolbox) Export(store *FeatureStore, format ExportFormat, crs string) (a *Artifact, err error) {
	if store.IsEmpty() {
		err = ErrEmptyStoreExport
		return
	}
	fc, err := store.SnapshotIn(crs)
	if err != nil {
		return
	}
	a = &Artifact{Crs: fc.Crs, Count: fc.Len()}
	switch format {
	case FormatGeoJSON:
		a.Name, a.ContentType = EXPORT_GEOJSON_NAME, MIME_GEOJSON
		a.Data, err = WriteGeoJSON(fc)
	case FormatShapefile:
		a.Name, a.ContentType = EXPORT_ZIP_NAME, MIME_ZIP
		a.Data, err = g.WriteShapefileZip(fc)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		a = nil
		return
	}
	log.Info(g.logTag+"export done", zap.String("format", string(format)), zap.String("crs", fc.Crs),
		zap.Int("features", fc.Len()), zap.Int("size", len(a.Data)))
	return
}
