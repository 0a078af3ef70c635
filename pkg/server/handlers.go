// Package server exposes the board over HTTP for status bars and widgets.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/unrolled/logger"

	"github.com/pthomas-44/nextbus/pkg/board"
	"github.com/pthomas-44/nextbus/pkg/schedule"
	"github.com/pthomas-44/nextbus/pkg/source"
)

const maxCount = 50

// Server holds what the handlers read. Metrics and Refresh are optional.
type Server struct {
	Manager    *schedule.Manager
	Thresholds board.Thresholds
	Metrics    http.Handler
	Refresh    func(ctx context.Context) (source.Report, error)
	Now        func() time.Time
	AccessLog  io.Writer
}

type tripView struct {
	schedule.Trip
	Buses    int        `json:"buses"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

type boardView struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Mode        board.Mode  `json:"mode"`
	Rows        []board.Row `json:"rows"`
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	opts := logger.Options{IgnoredRequestURIs: []string{"/healthz"}}
	if s.AccessLog != nil {
		opts.Out = s.AccessLog
	}
	r.Use(logger.New(opts).Handler)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/trips", s.handleTrips).Methods(http.MethodGet)
	r.HandleFunc("/trips/{id}/next", s.handleNext).Methods(http.MethodGet)
	r.HandleFunc("/board", s.handleBoard).Methods(http.MethodGet)
	if s.Refresh != nil {
		r.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	}
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics).Methods(http.MethodGet)
	}
	return r
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request) {
	trips := s.Manager.Trips()
	out := make([]tripView, 0, len(trips))
	for _, t := range trips {
		v := tripView{Trip: t, Buses: s.Manager.Len(t.ID)}
		if at, ok := s.Manager.LoadedAt(t.ID); ok {
			v.LoadedAt = &at
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	id := schedule.TripID(mux.Vars(r)["id"])
	trip, ok := s.Manager.Trip(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown trip "+string(id))
		return
	}

	mode, err := board.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxCount {
			writeError(w, http.StatusBadRequest, "count must be between 1 and "+strconv.Itoa(maxCount))
			return
		}
		trip.ArrivalsToShow = n
	}

	writeJSON(w, http.StatusOK, board.BuildRow(s.Manager, trip, s.now(), mode, s.Thresholds))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	mode, err := board.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	now := s.now()
	writeJSON(w, http.StatusOK, boardView{
		GeneratedAt: now,
		Mode:        mode,
		Rows:        board.Build(s.Manager, now, mode, s.Thresholds),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	report, err := s.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
