package geoedit

const (
	FILE_EXT_SHP     = ".shp"
	FILE_EXT_SHX     = ".shx"
	FILE_EXT_DBF     = ".dbf"
	FILE_EXT_PRJ     = ".prj"
	FILE_EXT_CPG     = ".cpg"
	FILE_EXT_ZIP     = ".zip"
	FILE_EXT_JSON    = ".json"
	FILE_EXT_GEOJSON = ".geojson"

	SHAPE_ENCODING  = "UTF-8"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING

	// shp无cpg文件时属性文本的默认编码
	DEFAULT_DBF_ENCODING = "ISO-8859-1"

	CRS_WGS84       = "EPSG:4326"
	CRS_WEB_MERC    = "EPSG:3857"
	CRS_UTM_11N     = "EPSG:32611"
	CRS_ROBINSON    = "ESRI:54030"
	CRS_MOLLWEIDE   = "ESRI:54009"
	DISPLAY_CRS     = CRS_WGS84 // 地图展示及手动录入所用坐标系
	GEOJSON_CRS     = CRS_WGS84
	CRS_AUTH_EPSG   = "EPSG"
	CRS_AUTH_ESRI   = "ESRI"
	CRS_URN_PREFIX  = "urn:ogc:def:crs:"
	CRS_NAME_CRS84  = "CRS84"
	WEB_MERC_MAXLAT = 85.06
	UTM_HALF_WIDTH  = 9.0
	UTM_MIN_LAT     = -80.0
	UTM_MAX_LAT     = 84.0

	EXPORT_GEOJSON_NAME = "exported_data.geojson"
	EXPORT_ZIP_NAME     = "exported_shapefile.zip"
	EXPORT_SHP_BASE     = "export_shapefile"
	MIME_GEOJSON        = "application/geo+json"
	MIME_ZIP            = "application/zip"

	SHP_FIELD_WIDTH = 254

	// 手动录入限制
	MAX_ENTRY_VERTICES  = 10
	MIN_LINE_VERTICES   = 2
	MIN_POLYGON_VERTEX  = 3
	TOOLTIP_FIELD_COUNT = 3

	DEFAULT_ZOOM = 2
	MAX_FIT_ZOOM = 18
	TILE_SIZE    = 256
)
