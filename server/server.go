package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wgdzlh/geoedit"
	"github.com/wgdzlh/geoedit/log"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// 上传解析、导出所需的工具集，GdalToolbox为其实现
type Toolbox interface {
	geoedit.Reprojector
	LoadUpload(store *geoedit.FeatureStore, name string, data []byte) (*geoedit.Dataset, error)
	Export(store *geoedit.FeatureStore, format geoedit.ExportFormat, crs string) (*geoedit.Artifact, error)
}

var _ Toolbox = (*geoedit.GdalToolbox)(nil)

type Server struct {
	cfg      *Config
	tb       Toolbox
	sessions *Sessions
	router   chi.Router
}

func New(cfg *Config, tb Toolbox) (s *Server, err error) {
	s = &Server{cfg: cfg, tb: tb}
	if s.sessions, err = NewSessions(cfg.MaxSessions, tb); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(recoverer, accessLog)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/crs", s.handleCrsList)
		r.Get("/basemaps", s.handleBaseMaps)
		r.Post("/upload", s.handleUpload)
		r.Get("/features", s.handleTable)
		r.Post("/features", s.handleAddFeature)
		r.Delete("/features", s.handleClear)
		r.Get("/map", s.handleMap)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/export", s.handleExport)
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// 启动服务，ctx取消后优雅退出
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
