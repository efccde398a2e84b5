package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/dashboard"
	"github.com/kartoza/spores-explorer/internal/explorer"
	"github.com/kartoza/spores-explorer/internal/metrics"
	"github.com/kartoza/spores-explorer/internal/models"
	"github.com/kartoza/spores-explorer/internal/sessions"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Handler provides HTTP API endpoints
type Handler struct {
	dash     *dashboard.Dashboard
	sessions *sessions.Store
	metrics  *metrics.Metrics
	cfg      config.Config
}

// NewHandler creates a new API handler
func NewHandler(
	dash *dashboard.Dashboard,
	store *sessions.Store,
	m *metrics.Metrics,
	cfg config.Config,
) *Handler {
	return &Handler{
		dash:     dash,
		sessions: store,
		metrics:  m,
		cfg:      cfg,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Dataset
	r.HandleFunc("/indicators", h.handleListIndicators).Methods("GET")
	r.HandleFunc("/records/{id}", h.handleRecord).Methods("GET")

	// Dashboard sessions
	r.HandleFunc("/sessions", h.handleCreateSession).Methods("POST")
	r.HandleFunc("/sessions/{id}", h.handleGetSession).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.handleDeleteSession).Methods("DELETE")
	r.HandleFunc("/sessions/{id}/events", h.handleEvent).Methods("POST")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeBody reads a JSON request body into v. An empty body leaves v as is.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	engine := h.dash.Engine()
	respondJSON(w, http.StatusOK, models.InfoResponse{
		Version:    h.cfg.Version,
		Records:    engine.Dataset().Len(),
		Indicators: len(engine.Indicators()),
		Sessions:   h.sessions.Len(),
	})
}

// handleListIndicators returns the filterable indicators with their bounds
func (h *Handler) handleListIndicators(w http.ResponseWriter, r *http.Request) {
	engine := h.dash.Engine()
	data := engine.Dataset()

	out := make([]models.IndicatorInfo, 0, len(engine.Indicators()))
	for _, ind := range engine.Indicators() {
		out = append(out, models.IndicatorInfo{
			Key:     ind.Key,
			Label:   ind.Label,
			Column:  ind.Column,
			Help:    ind.Help,
			Control: ind.ControlID(),
			Unit:    data.Unit(ind.Column),
			Bounds:  engine.Bounds(ind),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// handleRecord returns every column of one record
func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	data := h.dash.Engine().Dataset()

	id := mux.Vars(r)["id"]
	rec, err := data.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := models.RecordResponse{
		ID:     rec.ID,
		Values: make(map[string]*float64, len(data.Columns())),
		Units:  make(map[string]string, len(data.Columns())),
		Image:  dashboard.ImagePath(data, rec.ID),
	}
	for _, col := range data.Columns() {
		// missing values are sent as null
		if v, ok := rec.Value(col); ok && !math.IsNaN(v) {
			resp.Values[col] = &v
		} else {
			resp.Values[col] = nil
		}
		if u := data.Unit(col); u != "" {
			resp.Units[col] = u
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleCreateSession opens a session seeded from the page URL
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	e, err := h.sessions.Create(req.Href)
	if err != nil {
		log.Printf("Error creating session: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, models.SessionResponse{ID: e.ID, View: e.Session.View()})
}

// handleGetSession returns the full state of a session
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.SessionResponse{ID: e.ID, View: e.Session.View()})
}

// handleDeleteSession closes a session
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvent applies one user interaction and returns the changed cells
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	e, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req models.EventRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ev := dashboard.Event{
		Type:    dashboard.EventType(req.Type),
		Control: req.Control,
		Click:   req.ClickData,
		Href:    req.Href,
	}
	label := eventLabel(ev.Type)
	if ev.Type == dashboard.EventSlider {
		if len(req.Value) != 2 {
			h.metrics.IncrementEvent(label, errBadValue)
			respondError(w, http.StatusBadRequest, errBadValue.Error())
			return
		}
		ev.Value = explorer.Range{req.Value[0], req.Value[1]}
	}

	u, err := e.Session.Apply(ev)
	h.metrics.IncrementEvent(label, err)
	if err != nil {
		switch {
		case errors.Is(err, dashboard.ErrUnknownControl), errors.Is(err, dashboard.ErrUnknownEvent):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Error applying %s event to session %s: %v", req.Type, e.ID, err)
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, models.EventResponse{ID: e.ID, Changes: u.Changes, Search: u.Search})
}

var errBadValue = errors.New("slider value must be a [low, high] pair")

// eventLabel keeps the metric label set closed
func eventLabel(t dashboard.EventType) string {
	switch t {
	case dashboard.EventSlider, dashboard.EventClick, dashboard.EventDeselect,
		dashboard.EventReset, dashboard.EventNavigate:
		return string(t)
	}
	return "unknown"
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*sessions.Entry, bool) {
	e, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return e, true
}
