package config

import (
	"fmt"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast, stops at first error).
func (v *Validator) ValidateAll() error {
	for _, id := range v.cfg.Modes.List() {
		mode, err := v.cfg.Modes.Get(id)
		if err != nil {
			return err
		}
		if err := v.validateMode(id, mode); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateMode(id string, mode *ModeConfig) error {
	if mode.Name == "" {
		return NewValidationError("mode", id, "name", ErrMissingRequiredField)
	}
	if len(mode.Agents) == 0 {
		return NewValidationError("mode", id, "agents", ErrMissingRequiredField)
	}

	seen := make(map[string]bool, len(mode.Agents))
	for _, agent := range mode.Agents {
		if err := v.validateAgent(id, agent); err != nil {
			return err
		}
		if seen[agent.ID] {
			return NewValidationError("mode", id, "agents",
				fmt.Errorf("%w: duplicate agent id '%s'", ErrInvalidValue, agent.ID))
		}
		seen[agent.ID] = true
	}

	return v.validateWorkflow(id, mode)
}

func (v *Validator) validateAgent(modeID string, agent AgentConfig) error {
	if agent.ID == "" {
		return NewValidationError("mode", modeID, "agents", fmt.Errorf("%w: agent id", ErrMissingRequiredField))
	}
	if agent.SystemPrompt == "" {
		return NewValidationError("agent", agent.ID, "system_prompt", ErrMissingRequiredField)
	}
	if agent.Temperature < 0 || agent.Temperature > 1 {
		return NewValidationError("agent", agent.ID, "temperature",
			fmt.Errorf("%w: %v (must be in [0, 1])", ErrInvalidValue, agent.Temperature))
	}
	return nil
}

func (v *Validator) validateWorkflow(modeID string, mode *ModeConfig) error {
	wf := mode.Workflow
	if !wf.Type.IsValid() {
		return NewValidationError("mode", modeID, "workflow.type",
			fmt.Errorf("%w: '%s' (must be sequential or hybrid)", ErrInvalidValue, wf.Type))
	}
	if wf.Rounds < 1 {
		return NewValidationError("mode", modeID, "workflow.rounds",
			fmt.Errorf("%w: %d (must be >= 1)", ErrInvalidValue, wf.Rounds))
	}
	if len(wf.Steps) == 0 {
		return NewValidationError("mode", modeID, "workflow.steps", ErrMissingRequiredField)
	}

	// Every agent referenced by a step must exist in the mode's roster.
	checkAgent := func(agentID string) error {
		if mode.Agent(agentID) == nil {
			return NewValidationError("mode", modeID, "workflow.steps",
				fmt.Errorf("%w: '%s'", ErrAgentNotFound, agentID))
		}
		return nil
	}

	switch wf.Type {
	case WorkflowSequential:
		for i, step := range wf.Steps {
			if step.Agent == "" {
				return NewValidationError("mode", modeID, "workflow.steps",
					fmt.Errorf("%w: step %d has no agent", ErrMissingRequiredField, i))
			}
			if err := checkAgent(step.Agent); err != nil {
				return err
			}
		}

	case WorkflowHybrid:
		diverges, integrates := 0, 0
		for i, step := range wf.Steps {
			switch step.Phase {
			case PhaseDiverge:
				diverges++
				if len(step.Agents) == 0 {
					return NewValidationError("mode", modeID, "workflow.steps",
						fmt.Errorf("%w: diverge step %d has no agents", ErrMissingRequiredField, i))
				}
			case PhaseIntegrate:
				integrates++
				if len(step.Agents) != 1 {
					return NewValidationError("mode", modeID, "workflow.steps",
						fmt.Errorf("%w: integrate step %d must name exactly one agent", ErrInvalidValue, i))
				}
			default:
				return NewValidationError("mode", modeID, "workflow.steps",
					fmt.Errorf("%w: step %d has no phase", ErrMissingRequiredField, i))
			}
			for _, id := range step.Agents {
				if err := checkAgent(id); err != nil {
					return err
				}
			}
		}
		if diverges == 0 || integrates == 0 {
			return NewValidationError("mode", modeID, "workflow.steps",
				fmt.Errorf("%w: hybrid workflow requires both diverge and integrate phases", ErrInvalidValue))
		}
	}

	return nil
}
