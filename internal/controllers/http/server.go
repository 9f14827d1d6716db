package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Agrid-Dev/radiantctl/internal/controllers/wire"
	"github.com/Agrid-Dev/radiantctl/internal/ports"
)

type Server struct {
	svc     ports.ZoneService
	srv     *http.Server
	log     *slog.Logger
	metrics *metrics
}

// New returns a runnable server.
func New(svc ports.ZoneService, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, log: logger, metrics: newMetrics(svc)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Route("/v1", func(r chi.Router) {
		// Read
		r.Get("/", s.handleGetBuilding)
		r.Get("/zones", s.handleGetZones)
		r.Get("/zones/{zone}", s.handleGetZone)

		// Initialization and step call points
		r.Post("/reset", s.handlePostReset)
		r.Post("/step/before_demand", s.handlePostBeforeDemand)
		r.Post("/step/after_reporting", s.handlePostAfterReporting)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metrics.handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- Handlers ----

func (s *Server) handleGetBuilding(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, wire.FromBuilding(s.svc.Snapshot()))
}

func (s *Server) handleGetZones(w http.ResponseWriter, _ *http.Request) {
	b := wire.FromBuilding(s.svc.Snapshot())
	writeJSON(w, http.StatusOK, b.Zones)
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	z, err := s.svc.Zone(chi.URLParam(r, "zone"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wire.FromSnapshot(z))
}

func (s *Server) handlePostReset(w http.ResponseWriter, _ *http.Request) {
	s.svc.Reset()
	s.log.Info("building reset via http")
	writeJSON(w, http.StatusOK, wire.FromBuilding(s.svc.Snapshot()))
}

func (s *Server) handlePostBeforeDemand(w http.ResponseWriter, r *http.Request) {
	postFrame(w, r, wire.DecodeBeforeDemand, func(f ports.DemandFrame) (any, error) {
		outs, err := s.svc.BeforeDemand(r.Context(), f)
		if err != nil {
			return nil, err
		}
		cmds := make([]wire.Command, len(outs))
		for i, o := range outs {
			cmds[i] = wire.FromOutput(o)
		}
		return cmds, nil
	})
}

func (s *Server) handlePostAfterReporting(w http.ResponseWriter, r *http.Request) {
	postFrame(w, r, wire.DecodeAfterReporting, func(f ports.ReportFrame) (any, error) {
		days, err := s.svc.AfterReporting(r.Context(), f)
		if err != nil {
			return nil, err
		}
		return map[string]int{"day_summaries": len(days)}, nil
	})
}

// ---- generic helpers ----

func postFrame[F any](w http.ResponseWriter, r *http.Request, decode func(io.Reader) (F, error), apply func(F) (any, error)) {
	f, err := decode(r.Body)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := apply(f)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
