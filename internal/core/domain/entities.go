package domain

import (
	"encoding/json"
	"time"
)

// Difficulty grades how demanding a walk is.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "Easy"
	DifficultyModerate Difficulty = "Moderate"
	DifficultyHard     Difficulty = "Hard"
)

// Route is a stored walking route.
type Route struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	DistanceKm   float64         `json:"distance_km"`
	Duration     string          `json:"duration,omitempty"` // free text, e.g. "1u30"
	Difficulty   Difficulty      `json:"difficulty"`
	Muddy        bool            `json:"muddy"`
	Gehuchten    []string        `json:"gehuchten"`
	Highlights   []string        `json:"highlights"`
	Geometry     json.RawMessage `json:"geometry"` // GeoJSON LineString, [lng, lat]
	StartGeohash string          `json:"start_geohash,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RouteDraft carries the metadata of a route being created.
type RouteDraft struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Duration    string     `json:"duration" validate:"max=50"`
	Difficulty  Difficulty `json:"difficulty" validate:"required,oneof=Easy Moderate Hard"`
	Muddy       bool       `json:"muddy"`
	Gehuchten   []string   `json:"gehuchten" validate:"max=50,dive,required,max=100"`
	Highlights  []string   `json:"highlights" validate:"max=50,dive,required,max=200"`
}

// RoutePatch is a partial update. Nil fields are left untouched.
type RoutePatch struct {
	Name        *string     `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=5000"`
	Duration    *string     `json:"duration,omitempty" validate:"omitempty,max=50"`
	Difficulty  *Difficulty `json:"difficulty,omitempty" validate:"omitempty,oneof=Easy Moderate Hard"`
	Muddy       *bool       `json:"muddy,omitempty"`
	Gehuchten   []string    `json:"gehuchten,omitempty" validate:"omitempty,max=50,dive,required,max=100"`
	Highlights  []string    `json:"highlights,omitempty" validate:"omitempty,max=50,dive,required,max=200"`
	Path        *Path       `json:"-"`
}

// Apply merges the patch metadata into r. Geometry is handled by the caller.
func (p RoutePatch) Apply(r *Route) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Duration != nil {
		r.Duration = *p.Duration
	}
	if p.Difficulty != nil {
		r.Difficulty = *p.Difficulty
	}
	if p.Muddy != nil {
		r.Muddy = *p.Muddy
	}
	if p.Gehuchten != nil {
		r.Gehuchten = p.Gehuchten
	}
	if p.Highlights != nil {
		r.Highlights = p.Highlights
	}
}

// Patch turns a draft into a full-replacement patch.
func (d RouteDraft) Patch(path *Path) RoutePatch {
	return RoutePatch{
		Name:        &d.Name,
		Description: &d.Description,
		Duration:    &d.Duration,
		Difficulty:  &d.Difficulty,
		Muddy:       &d.Muddy,
		Gehuchten:   NonNil(d.Gehuchten),
		Highlights:  NonNil(d.Highlights),
		Path:        path,
	}
}

// NonNil returns s, or an empty slice when s is nil, so lists encode as [] rather than null.
func NonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Session is the capability granted to whoever drives an editor or calls a write endpoint.
type Session struct {
	Operator bool
}

// CanEdit reports whether the session may change routes.
func (s Session) CanEdit() bool { return s.Operator }

// PathSnapshot is what the map is redrawn from after every edit.
type PathSnapshot struct {
	RouteID    string     `json:"route_id,omitempty"`
	Points     []GeoPoint `json:"points"`
	DistanceKm float64    `json:"distance_km"`
	Complete   bool       `json:"complete"`
	Saving     bool       `json:"saving"`
	Viewport   Viewport   `json:"viewport"`
}

// RouteEventKind names what happened to a route.
type RouteEventKind string

const (
	RouteSaved   RouteEventKind = "saved"
	RouteDeleted RouteEventKind = "deleted"
)

// RouteEvent is broadcast after a route changes.
type RouteEvent struct {
	Kind       RouteEventKind `json:"kind"`
	RouteID    string         `json:"route_id"`
	DistanceKm float64        `json:"distance_km,omitempty"`
	At         time.Time      `json:"at"`
}
