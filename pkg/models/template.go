package models

import "time"

// TemplateAgent is the client-visible description of one agent in a mode.
type TemplateAgent struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Avatar  string `json:"avatar"`
	Color   string `json:"color"`
	Persona string `json:"persona"`
}

// Template describes an available workshop mode for client display.
type Template struct {
	ModeID        string          `json:"mode_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Icon          string          `json:"icon"`
	Agents        []TemplateAgent `json:"agents"`
	UseCases      []string        `json:"use_cases"`
	EstimatedTime string          `json:"estimated_time"`
	Workflow      string          `json:"workflow"`
	Rounds        int             `json:"rounds"`
}

// Report is the final session report returned by the report endpoint.
type Report struct {
	SessionID string    `json:"session_id"`
	Topic     string    `json:"topic"`
	Mode      string    `json:"mode"`
	Content   string    `json:"content"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
}
