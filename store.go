package geoedit

import (
	"fmt"

	"github.com/wgdzlh/geoedit/log"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FeatureStore holds the single authoritative feature collection of a
// session. Every mutation goes through LoadFrom/AddFeature and is atomic:
// either every incoming record is validated and reprojected, or nothing is
// appended.
//
// A FeatureStore is not safe for concurrent use; callers serialize requests.
type FeatureStore struct {
	proj     Reprojector
	features []Feature
	columns  []string
	crs      string
	logTag   string
}

func NewFeatureStore(proj Reprojector) *FeatureStore {
	return &FeatureStore{
		proj:   proj,
		logTag: "FeatureStore:",
	}
}

// 置空要素集合，坐标系未定
func (s *FeatureStore) Initialize() {
	s.features = nil
	s.columns = nil
	s.crs = ""
}

func (s *FeatureStore) Clear() {
	log.Info(s.logTag+"clear store", zap.Int("features", len(s.features)), zap.String("crs", s.crs))
	s.Initialize()
}

func (s *FeatureStore) Crs() string {
	return s.crs
}

func (s *FeatureStore) Len() int {
	return len(s.features)
}

func (s *FeatureStore) IsEmpty() bool {
	return len(s.features) == 0
}

func (s *FeatureStore) Columns() []string {
	return append([]string(nil), s.columns...)
}

// 加载一批要素：空集合时以sourceCrs为集合坐标系原样保存；
// 否则先转换到集合现有坐标系再追加
func (s *FeatureStore) LoadFrom(raw []Feature, sourceCrs string, columns ...string) (err error) {
	if len(raw) == 0 {
		return ErrNoFeatures
	}
	src, err := NormalizeCrs(sourceCrs)
	if err == nil {
		err = s.proj.CheckCrs(src)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnknownCrs, sourceCrs, err)
	}
	var (
		prepared = make([]Feature, len(raw))
		errs     error
	)
	for i, f := range raw {
		geom, e := NormalizeGeometry(f.Geometry)
		if e != nil {
			errs = multierr.Append(errs, fmt.Errorf("record %d: %w", i, e))
			continue
		}
		prepared[i] = Feature{Geometry: geom, Attributes: cloneAttributes(f.Attributes)}
	}
	if errs != nil {
		log.Warn(s.logTag+"reject invalid records", zap.Int("total", len(raw)), zap.Int("invalid", len(multierr.Errors(errs))))
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, errs)
	}
	target := s.crs
	if len(s.features) == 0 {
		target = src
	}
	if target != src {
		for i := range prepared {
			g, e := s.proj.Reproject(prepared[i].Geometry, src, target)
			if e != nil {
				return fmt.Errorf("record %d: %w", i, e)
			}
			prepared[i].Geometry = g
		}
	}
	s.crs = target
	s.features = append(s.features, prepared...)
	s.columns = mergeColumns(s.columns, columns, prepared)
	log.Info(s.logTag+"features loaded", zap.Int("added", len(prepared)), zap.Int("total", len(s.features)),
		zap.String("srcCrs", src), zap.String("crs", s.crs))
	return
}

// 追加单个要素，规则同LoadFrom
func (s *FeatureStore) AddFeature(f Feature, featureCrs string) error {
	return s.LoadFrom([]Feature{f}, featureCrs)
}

// 当前坐标系下的只读副本
func (s *FeatureStore) Snapshot() *FeatureCollection {
	fc := &FeatureCollection{
		Features: make([]Feature, len(s.features)),
		Columns:  s.Columns(),
		Crs:      s.crs,
	}
	for i, f := range s.features {
		fc.Features[i] = f.Clone()
	}
	return fc
}

// 转换到targetCrs的只读副本，不修改集合本身
func (s *FeatureStore) SnapshotIn(targetCrs string) (fc *FeatureCollection, err error) {
	if SameCrs(targetCrs, s.crs) {
		fc = s.Snapshot()
		return
	}
	target, err := NormalizeCrs(targetCrs)
	if err != nil {
		return
	}
	if err = s.proj.CheckCrs(target); err != nil {
		return
	}
	fc = &FeatureCollection{
		Features: make([]Feature, len(s.features)),
		Columns:  s.Columns(),
		Crs:      target,
	}
	for i, f := range s.features {
		c := Feature{Attributes: cloneAttributes(f.Attributes)}
		if c.Geometry, err = s.proj.Reproject(f.Geometry, s.crs, target); err != nil {
			fc = nil
			err = fmt.Errorf("feature %d: %w", i, err)
			return
		}
		fc.Features[i] = c
	}
	return
}

func cloneAttributes(a Attributes) Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
