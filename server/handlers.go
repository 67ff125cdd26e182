package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/wgdzlh/geoedit"
	"github.com/wgdzlh/geoedit/log"

	"go.uber.org/zap"
)

const UPLOAD_FIELD = "file"

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("write response failed", zap.Error(err))
	}
}

// 业务错误均为4xx，集合保持不变
func statusOf(err error) int {
	switch {
	case errors.Is(err, geoedit.ErrEmptyStoreExport):
		return http.StatusConflict
	case errors.Is(err, geoedit.ErrInvalidGeometry),
		errors.Is(err, geoedit.ErrInvalidCoordinate),
		errors.Is(err, geoedit.ErrNoFeatures),
		errors.Is(err, geoedit.ErrUnknownCrs),
		errors.Is(err, geoedit.ErrProjectionDomain),
		errors.Is(err, geoedit.ErrMissingPrimaryFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, geoedit.ErrUnsupportedCrs),
		errors.Is(err, geoedit.ErrUnsupportedFormat),
		errors.Is(err, geoedit.ErrUnknownBaseMap),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorBody{err.Error()})
}

// 在会话的要素集合上执行fn，同一会话的请求串行
func (s *Server) withStore(w http.ResponseWriter, r *http.Request, fn func(*geoedit.FeatureStore) error) {
	id, sess := s.sessions.Acquire(r.Header.Get(SESSION_HEADER))
	w.Header().Set(SESSION_HEADER, id)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess.store); err != nil {
		writeError(w, err)
	}
}

type storeState struct {
	Loaded  int      `json:"loaded,omitempty"`
	Source  string   `json:"source,omitempty"`
	Total   int      `json:"total"`
	Crs     string   `json:"crs,omitempty"`
	Columns []string `json:"columns"`
}

func stateOf(store *geoedit.FeatureStore) storeState {
	return storeState{Total: store.Len(), Crs: store.Crs(), Columns: store.Columns()}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleCrsList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, geoedit.ProjectionOptions)
}

func (s *Server) handleBaseMaps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, geoedit.BaseMaps)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, hdr, err := r.FormFile(UPLOAD_FIELD)
	if err != nil {
		var mbe *http.MaxBytesError
		if !errors.As(err, &mbe) {
			err = fmt.Errorf("%w: multipart field %q: %v", errBadRequest, UPLOAD_FIELD, err)
		}
		writeError(w, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, err)
		return
	}
	s.withStore(w, r, func(store *geoedit.FeatureStore) error {
		ds, err := s.tb.LoadUpload(store, hdr.Filename, data)
		observeOp("load", err)
		if err != nil {
			return err
		}
		storeFeatures.Observe(float64(store.Len()))
		st := stateOf(store)
		st.Loaded, st.Source = len(ds.Features), ds.Source
		writeJSON(w, http.StatusOK, st)
		return nil
	})
}

func (s *Server) handleAddFeature(w http.ResponseWriter, r *http.Request) {
	var entry geoedit.ManualEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.withStore(w, r, func(store *geoedit.FeatureStore) error {
		err := entry.Submit(store)
		observeOp("add", err)
		if err != nil {
			return err
		}
		storeFeatures.Observe(float64(store.Len()))
		st := stateOf(store)
		st.Loaded = 1
		writeJSON(w, http.StatusCreated, st)
		return nil
	})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	s.withStore(w, r, func(store *geoedit.FeatureStore) error {
		writeJSON(w, http.StatusOK, geoedit.BuildFeatureTable(store))
		return nil
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.withStore(w, r, func(store *geoedit.FeatureStore) error {
		store.Clear()
		observeOp("clear", nil)
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	bm, err := geoedit.ParseBaseMap(r.URL.Query().Get("basemap"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.withStore(w, r, func(store *geoedit.FeatureStore) error {
		mv, err := geoedit.BuildMapView(store, bm)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, mv)
		return nil
	})
}

// 当前要素集合的GeoJSON，crs缺省为集合自身坐标系
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.withStore(w, r, func(store *geoedit.FeatureStore) error {
		target := r.URL.Query().Get("crs")
		if target == "" {
			if target = store.Crs(); target == "" {
				target = geoedit.DISPLAY_CRS
			}
		}
		fc, err := store.SnapshotIn(target)
		if err != nil {
			return err
		}
		data, err := geoedit.WriteGeoJSON(fc)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", geoedit.MIME_GEOJSON)
		w.Header().Set("X-Feature-Count", strconv.Itoa(fc.Len()))
		if _, err = w.Write(data); err != nil {
			log.Warn("snapshot write failed", zap.Error(err))
		}
		return nil
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("format")
	if name == "" {
		name = string(geoedit.FormatGeoJSON)
	}
	format, err := geoedit.ParseExportFormat(name)
	if err != nil {
		writeError(w, err)
		return
	}
	crs := q.Get("crs")
	if crs == "" {
		crs = geoedit.DISPLAY_CRS
	}
	s.withStore(w, r, func(store *geoedit.FeatureStore) error {
		a, err := s.tb.Export(store, format, crs)
		observeOp("export", err)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", a.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
		w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
		w.Header().Set("X-Feature-Count", strconv.Itoa(a.Count))
		w.Header().Set("X-Crs", a.Crs)
		_, err = w.Write(a.Data)
		if err != nil {
			log.Warn("export write failed", zap.Error(err))
		}
		return nil
	})
}
