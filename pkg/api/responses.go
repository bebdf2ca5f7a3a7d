package api

import (
	"github.com/opennotebook/workshop/pkg/database"
	"github.com/opennotebook/workshop/pkg/models"
)

// TemplateListResponse is returned by GET /api/v1/workshops/templates.
type TemplateListResponse struct {
	Templates []models.Template `json:"templates"`
}

// SessionListResponse is returned by GET /api/v1/workshops/notebooks/:id/sessions.
type SessionListResponse struct {
	Sessions []*models.Session `json:"sessions"`
	Total    int               `json:"total"`
}

// DeleteResponse is returned by DELETE /api/v1/workshops/sessions/:id.
type DeleteResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	Database      *database.HealthStatus `json:"database,omitempty"`
	Configuration ConfigurationStats     `json:"configuration"`
}

// ConfigurationStats contains counts of loaded configuration items.
type ConfigurationStats struct {
	Modes int `json:"modes"`
}
