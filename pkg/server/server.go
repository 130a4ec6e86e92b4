// Package server exposes a built dataset and its hierarchy over HTTP.
//
// Routes (all GET, JSON responses):
//
//	/api/bees                          bees map; ?mod= filters by mod
//	/api/mutations                     mutation groups; ?child= or ?parent= filter
//	/api/combs                         combs map
//	/api/hierarchy                     nodes, edges and relaxation passes
//	/api/diagnostics                   diagnostics of the run that built the data
//	/api/species/{id}                  bee, node and the groups it appears in
//	/api/species/{id}/ancestors        ancestor closure grouped by generation
//	/api/species/{id}/descendants      descendant closure grouped by generation
//	/healthz                           liveness
//	/metrics                           Prometheus metrics, when configured
//
// Lineage routes accept ?hideSecret=true to drop secret species from the
// closure; the hierarchy itself always contains them.
//
// The served data is an immutable [Snapshot]. [Server.Swap] replaces it
// atomically, so a request never observes a half-built hierarchy.
package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/beetree/pkg/dataset"
	"github.com/matzehuels/beetree/pkg/diag"
	"github.com/matzehuels/beetree/pkg/errors"
	"github.com/matzehuels/beetree/pkg/hierarchy"
	"github.com/matzehuels/beetree/pkg/observability"
)

// Snapshot is the data a server answers from.
type Snapshot struct {
	Dataset   *dataset.Dataset
	Hierarchy *hierarchy.Hierarchy
	Report    *diag.Report
}

// Options configures a Server.
type Options struct {
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
	Logger  *log.Logger
}

// Server is an http.Handler serving one snapshot at a time.
type Server struct {
	snap   atomic.Pointer[Snapshot]
	router chi.Router
	logger *log.Logger
}

// New returns a server answering from snap.
func New(snap *Snapshot, opts Options) *Server {
	s := &Server{logger: opts.Logger}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.Swap(snap)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/bees", s.handleBees)
		r.Get("/mutations", s.handleMutations)
		r.Get("/combs", s.handleCombs)
		r.Get("/hierarchy", s.handleHierarchy)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Route("/species/{id}", func(r chi.Router) {
			r.Get("/", s.handleSpecies)
			r.Get("/ancestors", s.handleLineage(lineageAncestors))
			r.Get("/descendants", s.handleLineage(lineageDescendants))
		})
	})

	s.router = r
	return s
}

// Swap replaces the served snapshot.
func (s *Server) Swap(snap *Snapshot) {
	if snap.Report == nil {
		snap.Report = &diag.Report{}
	}
	s.snap.Store(snap)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// instrument reports every request to the server hooks, labelled by route
// pattern rather than raw path.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.Server().OnRequest(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", elapsed)
	})
}

func (s *Server) handleBees(w http.ResponseWriter, r *http.Request) {
	d := s.snap.Load().Dataset
	mod := r.URL.Query().Get("mod")
	if mod == "" {
		writeJSON(w, http.StatusOK, d.Bees)
		return
	}
	out := make(map[string]dataset.Bee)
	for id, b := range d.Bees {
		if b.Mod == mod {
			out[id] = b
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMutations(w http.ResponseWriter, r *http.Request) {
	d := s.snap.Load().Dataset
	q := r.URL.Query()
	switch {
	case q.Get("child") != "":
		writeJSON(w, http.StatusOK, nonNilGroups(d.ProducedBy(q.Get("child"))))
	case q.Get("parent") != "":
		writeJSON(w, http.StatusOK, nonNilGroups(d.UsedIn(q.Get("parent"))))
	default:
		writeJSON(w, http.StatusOK, nonNilGroups(d.Mutations))
	}
}

func (s *Server) handleCombs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snap.Load().Dataset.Combs)
}

func (s *Server) handleHierarchy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snap.Load().Hierarchy)
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	report := s.snap.Load().Report
	items := report.Items()
	if items == nil {
		items = []diag.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":     report.Summary(),
		"diagnostics": items,
	})
}

type speciesResponse struct {
	ID         string                  `json:"id"`
	Bee        dataset.Bee             `json:"bee"`
	Node       *hierarchy.Node         `json:"node"`
	ProducedBy []dataset.MutationGroup `json:"producedBy"`
	UsedIn     []dataset.MutationGroup `json:"usedIn"`
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	snap := s.snap.Load()
	id, ok := speciesID(w, r, snap)
	if !ok {
		return
	}
	node, _ := snap.Hierarchy.Node(id)
	writeJSON(w, http.StatusOK, speciesResponse{
		ID:         id,
		Bee:        snap.Dataset.Bees[id],
		Node:       node,
		ProducedBy: nonNilGroups(snap.Dataset.ProducedBy(id)),
		UsedIn:     nonNilGroups(snap.Dataset.UsedIn(id)),
	})
}

type lineageDirection int

const (
	lineageAncestors lineageDirection = iota
	lineageDescendants
)

type lineageResponse struct {
	ID          string           `json:"id"`
	IDs         []string         `json:"ids"`
	Generations map[int][]string `json:"generations"`
}

func (s *Server) handleLineage(dir lineageDirection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.snap.Load()
		id, ok := speciesID(w, r, snap)
		if !ok {
			return
		}

		var ids []string
		var err error
		if dir == lineageAncestors {
			ids, err = snap.Hierarchy.Ancestors(id)
		} else {
			ids, err = snap.Hierarchy.Descendants(id)
		}
		if err != nil {
			writeError(w, statusFor(err), errors.UserMessage(err))
			return
		}

		if hide, _ := strconv.ParseBool(r.URL.Query().Get("hideSecret")); hide {
			visible := ids[:0:0]
			for _, other := range ids {
				if !snap.Dataset.Bees[other].IsSecret {
					visible = append(visible, other)
				}
			}
			ids = visible
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, lineageResponse{
			ID:          id,
			IDs:         ids,
			Generations: snap.Hierarchy.Generations(ids),
		})
	}
}

// speciesID extracts and checks the {id} route parameter, writing a 404 when
// the species is unknown.
func speciesID(w http.ResponseWriter, r *http.Request, snap *Snapshot) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := url.PathUnescape(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed species id")
		return "", false
	}
	if _, ok := snap.Hierarchy.Node(id); !ok {
		writeError(w, http.StatusNotFound, "species not found: "+id)
		return "", false
	}
	return id, true
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeSpeciesNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func nonNilGroups(groups []dataset.MutationGroup) []dataset.MutationGroup {
	if groups == nil {
		return []dataset.MutationGroup{}
	}
	return groups
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
