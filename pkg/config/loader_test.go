package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModesYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "modes.yaml"), []byte(content), 0o644))
	return dir
}

func TestInitialize_BuiltinsOnly(t *testing.T) {
	cfg, err := Initialize(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []string{"brainstorm_mode", "dialectical_mode"}, cfg.Modes.List())
	assert.True(t, cfg.Modes.Has("dialectical_mode"))

	mode, err := cfg.GetMode("dialectical_mode")
	require.NoError(t, err)
	assert.Equal(t, WorkflowSequential, mode.Workflow.Type)
	assert.Equal(t, 2, mode.Workflow.Rounds)
	assert.Len(t, mode.Agents, 3)

	defaults := cfg.Defaults
	assert.Equal(t, GetBuiltinDefaults().LLMModel, defaults.LLMModel)
	assert.Equal(t, 3, defaults.MaxRetries)
}

func TestInitialize_UserModeAdded(t *testing.T) {
	dir := writeModesYAML(t, `
modes:
  standup_mode:
    name: "Standup"
    description: "Quick status round"
    agents:
      - id: lead
        name: "Lead"
        temperature: 0.5
        system_prompt: "You run the standup."
        user_prompt_template: "Topic: {topic}"
    workflow:
      type: sequential
      rounds: 1
      steps:
        - agent: lead
`)
	cfg, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Modes.Len())
	mode, err := cfg.GetMode("standup_mode")
	require.NoError(t, err)
	assert.Equal(t, "Standup", mode.Name)
	assert.Equal(t, "Lead", mode.AgentName("lead"))
}

func TestInitialize_UserModeOverridesBuiltin(t *testing.T) {
	dir := writeModesYAML(t, `
modes:
  dialectical_mode:
    name: "Custom Dialectic"
    agents:
      - id: solo
        name: "Solo"
        temperature: 0.2
        system_prompt: "Argue both sides."
        user_prompt_template: "{topic}"
    workflow:
      type: sequential
      rounds: 1
      steps:
        - agent: solo
`)
	cfg, err := Initialize(dir)
	require.NoError(t, err)

	mode, err := cfg.GetMode("dialectical_mode")
	require.NoError(t, err)
	assert.Equal(t, "Custom Dialectic", mode.Name)
	require.Len(t, mode.Agents, 1)
	assert.Equal(t, "solo", mode.Agents[0].ID)
}

func TestInitialize_UserDefaultsOverride(t *testing.T) {
	dir := writeModesYAML(t, `
defaults:
  llm_model: "claude-haiku-4-5"
  max_tokens: 2048
`)
	cfg, err := Initialize(dir)
	require.NoError(t, err)

	assert.Equal(t, "claude-haiku-4-5", cfg.Defaults.LLMModel)
	assert.Equal(t, 2048, cfg.Defaults.MaxTokens)
	// Unset values keep the built-in defaults.
	assert.Equal(t, GetBuiltinDefaults().TurnTimeout, cfg.Defaults.TurnTimeout)
	assert.Equal(t, GetBuiltinDefaults().SessionTimeout, cfg.Defaults.SessionTimeout)
}

func TestInitialize_InvalidYAML(t *testing.T) {
	dir := writeModesYAML(t, "modes: [not: a: map")
	_, err := Initialize(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestInitialize_InvalidModeFailsValidation(t *testing.T) {
	dir := writeModesYAML(t, `
modes:
  broken_mode:
    name: "Broken"
    agents:
      - id: a
        name: "A"
        system_prompt: "x"
        user_prompt_template: "{topic}"
    workflow:
      type: sequential
      rounds: 1
      steps:
        - agent: ghost
`)
	_, err := Initialize(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestConfigStats(t *testing.T) {
	cfg, err := Initialize(t.TempDir())
	require.NoError(t, err)

	stats := cfg.Stats()
	assert.Equal(t, 2, stats.Modes)
	assert.Equal(t, 7, stats.Agents)
}

func TestRegistry_GetUnknownMode(t *testing.T) {
	cfg, err := Initialize(t.TempDir())
	require.NoError(t, err)

	_, err = cfg.GetMode("nope")
	assert.ErrorIs(t, err, ErrModeNotFound)
}
