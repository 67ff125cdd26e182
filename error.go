package geoedit

import "errors"

var (
	ErrInvalidGeometry    = errors.New("invalid geometry")
	ErrInvalidCoordinate  = errors.New("coordinate out of range")
	ErrNoFeatures         = errors.New("no features given")
	ErrUnknownCrs         = errors.New("unknown crs")
	ErrUnsupportedCrs     = errors.New("unsupported crs")
	ErrProjectionDomain   = errors.New("coordinate outside projection domain")
	ErrMissingPrimaryFile = errors.New("no .shp file found in the uploaded zip")
	ErrEmptyStoreExport   = errors.New("no features to export")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrUnknownBaseMap     = errors.New("unknown base map")
	ErrIncompleteBundle   = errors.New("shapefile bundle incomplete")
	ErrGdalDriverCreate   = errors.New("gdal driver create err")
	ErrGdalDriverOpen     = errors.New("gdal driver open err")
	ErrGdalWrongGeoType   = errors.New("gdal wrong geo type")
)
