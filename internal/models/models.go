package models

import (
	"github.com/kartoza/spores-explorer/internal/dashboard"
	"github.com/kartoza/spores-explorer/internal/dataset"
)

// CreateSessionRequest opens a dashboard session for a page URL
type CreateSessionRequest struct {
	Href string `json:"href"`
}

// SessionResponse is the full state of a session
type SessionResponse struct {
	ID   string         `json:"id"`
	View dashboard.View `json:"view"`
}

// EventRequest represents one user interaction
type EventRequest struct {
	Type      string               `json:"type"`
	Control   string               `json:"control,omitempty"`
	Value     []float64            `json:"value,omitempty"`
	ClickData *dashboard.ClickData `json:"clickData,omitempty"`
	Href      string               `json:"href,omitempty"`
}

// EventResponse contains the cells an event changed
type EventResponse struct {
	ID      string         `json:"id"`
	Changes map[string]any `json:"changes"`
	Search  string         `json:"search"`
}

// IndicatorInfo describes one filterable indicator
type IndicatorInfo struct {
	Key     string         `json:"key"`
	Label   string         `json:"label"`
	Column  string         `json:"column"`
	Help    string         `json:"help,omitempty"`
	Control string         `json:"control"`
	Unit    string         `json:"unit,omitempty"`
	Bounds  dataset.Bounds `json:"bounds"`
}

// RecordResponse is one record with its units
type RecordResponse struct {
	ID     string              `json:"id"`
	Values map[string]*float64 `json:"values"`
	Units  map[string]string   `json:"units"`
	Image  string              `json:"image"`
}

// InfoResponse describes the running server
type InfoResponse struct {
	Version    string `json:"version"`
	Records    int    `json:"records"`
	Indicators int    `json:"indicators"`
	Sessions   int    `json:"sessions"`
}
