// Package config loads, merges, and validates workshop mode configuration.
//
// Built-in modes ship with the binary; a modes.yaml file in the config
// directory may add new modes or override built-in ones. Infrastructure
// settings (database, HTTP port, LLM credentials) come from the environment,
// not from YAML.
package config

import "time"

// WorkflowType selects how a mode's agents are scheduled.
type WorkflowType string

const (
	// WorkflowSequential invokes agents strictly in declared order. All
	// steps except the last repeat for the configured number of rounds;
	// the final step runs once after the rounds complete.
	WorkflowSequential WorkflowType = "sequential"

	// WorkflowHybrid invokes the diverge step's agents concurrently (each
	// seeing only the static context), then runs a single integrating
	// agent that sees all diverge output.
	WorkflowHybrid WorkflowType = "hybrid"
)

// IsValid reports whether t is a known workflow type.
func (t WorkflowType) IsValid() bool {
	return t == WorkflowSequential || t == WorkflowHybrid
}

// WorkflowPhase tags a hybrid workflow step.
type WorkflowPhase string

const (
	PhaseDiverge   WorkflowPhase = "diverge"
	PhaseIntegrate WorkflowPhase = "integrate"
)

// AgentConfig describes one agent persona within a mode.
type AgentConfig struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Role               string   `yaml:"role"`
	Persona            string   `yaml:"persona"`
	Color              string   `yaml:"color"`
	Avatar             string   `yaml:"avatar"`
	Temperature        float64  `yaml:"temperature"`
	SystemPrompt       string   `yaml:"system_prompt"`
	UserPromptTemplate string   `yaml:"user_prompt_template"`
	Tools              []string `yaml:"tools,omitempty"`
}

// WorkflowStep is one scheduling unit in a mode's workflow.
// Sequential steps name a single Agent. Hybrid steps name either a parallel
// Agents set (phase: diverge) or a single integrator (phase: integrate).
// Context lists the agent IDs whose output this step's agents see in their
// prompts; an empty list leaves every agent visible. Parallel controls
// whether a diverge step's agents run concurrently.
type WorkflowStep struct {
	Agent    string        `yaml:"agent,omitempty"`
	Agents   []string      `yaml:"agents,omitempty"`
	Phase    WorkflowPhase `yaml:"phase,omitempty"`
	Context  []string      `yaml:"context,omitempty"`
	Parallel bool          `yaml:"parallel,omitempty"`
}

// WorkflowConfig describes a mode's scheduling topology.
type WorkflowConfig struct {
	Type   WorkflowType   `yaml:"type"`
	Rounds int            `yaml:"rounds"`
	Steps  []WorkflowStep `yaml:"steps"`
}

// ModeConfig is a complete workshop mode: the agent roster plus the workflow
// that schedules them.
type ModeConfig struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	Icon          string         `yaml:"icon"`
	UseCases      []string       `yaml:"use_cases"`
	EstimatedTime string         `yaml:"estimated_time"`
	Agents        []AgentConfig  `yaml:"agents"`
	Workflow      WorkflowConfig `yaml:"workflow"`
}

// Agent returns the agent with the given ID, or nil if the mode has no such
// agent.
func (m *ModeConfig) Agent(id string) *AgentConfig {
	for i := range m.Agents {
		if m.Agents[i].ID == id {
			return &m.Agents[i]
		}
	}
	return nil
}

// AgentName returns the display name for an agent ID, falling back to the ID
// itself when the agent is unknown.
func (m *ModeConfig) AgentName(id string) string {
	if a := m.Agent(id); a != nil {
		return a.Name
	}
	return id
}

// Defaults holds tunables that apply across modes unless overridden.
type Defaults struct {
	LLMModel       string        `yaml:"llm_model"`
	MaxTokens      int           `yaml:"max_tokens"`
	TurnTimeout    time.Duration `yaml:"turn_timeout"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}
