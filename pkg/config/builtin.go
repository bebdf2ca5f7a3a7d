package config

import (
	"sync"
	"time"
)

var (
	builtinModes     map[string]ModeConfig
	builtinModesOnce sync.Once
)

// GetBuiltinModes returns the built-in mode definitions (thread-safe, lazy-initialized).
func GetBuiltinModes() map[string]ModeConfig {
	builtinModesOnce.Do(initBuiltinModes)
	return builtinModes
}

// GetBuiltinDefaults returns default tunables applied when modes.yaml does
// not override them.
func GetBuiltinDefaults() Defaults {
	return Defaults{
		LLMModel:       "claude-sonnet-4-5-20250929",
		MaxTokens:      4096,
		TurnTimeout:    2 * time.Minute,
		SessionTimeout: 15 * time.Minute,
		MaxRetries:     3,
	}
}

func initBuiltinModes() {
	builtinModes = map[string]ModeConfig{
		"dialectical_mode": dialecticalMode(),
		"brainstorm_mode":  brainstormMode(),
	}
}

// dialecticalMode runs supporter and critic in alternating rounds, then a
// synthesizer that sees the whole debate.
func dialecticalMode() ModeConfig {
	return ModeConfig{
		Name:          "Dialectical Analysis",
		Description:   "Structured debate: a supporter and a critic argue alternating rounds, then a synthesizer weighs both sides.",
		Icon:          "scale",
		UseCases:      []string{"Paper Review", "Program Evaluation", "Pros and Cons"},
		EstimatedTime: "2-3min",
		Agents: []AgentConfig{
			{
				ID:          "supporter",
				Name:        "Supporter",
				Role:        "advocate",
				Persona:     "An optimistic analyst who builds the strongest possible case for the topic.",
				Color:       "#2e7d32",
				Avatar:      "thumbs-up",
				Temperature: 0.7,
				SystemPrompt: "You are the Supporter in a structured debate. Argue the strongest " +
					"good-faith case FOR the topic under discussion. Ground your claims in the " +
					"provided context, concede nothing that has not been argued, and keep each " +
					"statement under 300 words.",
				UserPromptTemplate: "Topic: {topic}\n\nContext:\n{context}\n\n" +
					"Prior statements:\n{previous_opinions}\n\n" +
					"Give your strongest argument in favor. If the critic has responded, rebut " +
					"their specific points.",
				Tools: []string{"notebook_reader"},
			},
			{
				ID:          "critic",
				Name:        "Critic",
				Role:        "skeptic",
				Persona:     "A rigorous skeptic who probes weaknesses, risks, and unstated assumptions.",
				Color:       "#c62828",
				Avatar:      "thumbs-down",
				Temperature: 0.7,
				SystemPrompt: "You are the Critic in a structured debate. Identify the weakest " +
					"assumptions, missing evidence, and risks in the topic and in the supporter's " +
					"argument. Be specific and fair; keep each statement under 300 words.",
				UserPromptTemplate: "Topic: {topic}\n\nContext:\n{context}\n\n" +
					"Supporter's argument:\n{supporter_opinion}\n\n" +
					"Challenge the argument above point by point.",
				Tools: []string{"notebook_reader"},
			},
			{
				ID:          "synthesizer",
				Name:        "Synthesizer",
				Role:        "judge",
				Persona:     "A balanced judge who integrates both sides into an actionable conclusion.",
				Color:       "#1565c0",
				Avatar:      "scale",
				Temperature: 0.5,
				SystemPrompt: "You are the Synthesizer closing a structured debate. Weigh the " +
					"supporter's and critic's positions, state where each is strongest, and end " +
					"with a clear recommendation and its conditions.",
				UserPromptTemplate: "Topic: {topic}\n\nContext:\n{context}\n\n" +
					"Full debate:\n{previous_opinions}\n\n" +
					"Produce a balanced synthesis and a final recommendation.",
			},
		},
		Workflow: WorkflowConfig{
			Type:   WorkflowSequential,
			Rounds: 2,
			Steps: []WorkflowStep{
				{Agent: "supporter", Context: []string{"critic"}},
				{Agent: "critic", Context: []string{"supporter"}},
				{Agent: "synthesizer", Context: []string{"supporter", "critic"}},
			},
		},
	}
}

// brainstormMode runs three idea generators concurrently, then one curator
// that integrates their output.
func brainstormMode() ModeConfig {
	return ModeConfig{
		Name:          "Brainstorm",
		Description:   "Divergent ideation: three independent thinkers generate ideas in parallel, then a curator merges and ranks them.",
		Icon:          "lightbulb",
		UseCases:      []string{"Topic Selection", "Idea Generation", "Brainstorming"},
		EstimatedTime: "3-5min",
		Agents: []AgentConfig{
			{
				ID:          "visionary",
				Name:        "Visionary",
				Role:        "idea generator",
				Persona:     "A blue-sky thinker who proposes ambitious, unconventional directions.",
				Color:       "#6a1b9a",
				Avatar:      "rocket",
				Temperature: 0.9,
				SystemPrompt: "You are the Visionary in a brainstorm. Propose 3-5 ambitious, " +
					"unconventional ideas for the topic. Ignore feasibility for now; optimize for " +
					"novelty and upside. One short paragraph per idea.",
				UserPromptTemplate: "Topic: {topic}\n\nContext:\n{context}\n\nList your boldest ideas.",
			},
			{
				ID:          "pragmatist",
				Name:        "Pragmatist",
				Role:        "idea generator",
				Persona:     "A hands-on builder who proposes ideas that could ship this quarter.",
				Color:       "#ef6c00",
				Avatar:      "wrench",
				Temperature: 0.8,
				SystemPrompt: "You are the Pragmatist in a brainstorm. Propose 3-5 ideas for the " +
					"topic that could realistically be executed with current resources. Name the " +
					"first concrete step for each.",
				UserPromptTemplate: "Topic: {topic}\n\nContext:\n{context}\n\nList your most practical ideas.",
			},
			{
				ID:          "futurist",
				Name:        "Futurist",
				Role:        "idea generator",
				Persona:     "A trend-watcher who extrapolates where the field is heading.",
				Color:       "#00838f",
				Avatar:      "telescope",
				Temperature: 0.9,
				SystemPrompt: "You are the Futurist in a brainstorm. Propose 3-5 ideas for the " +
					"topic grounded in where the field will be in 2-5 years. Name the trend each " +
					"idea rides.",
				UserPromptTemplate: "Topic: {topic}\n\nContext:\n{context}\n\nList your forward-looking ideas.",
			},
			{
				ID:          "curator",
				Name:        "Curator",
				Role:        "integrator",
				Persona:     "An editor who merges overlapping ideas and ranks the best ones.",
				Color:       "#1565c0",
				Avatar:      "clipboard",
				Temperature: 0.5,
				SystemPrompt: "You are the Curator closing a brainstorm. Merge overlapping ideas " +
					"from the other participants, discard weak ones with a one-line reason, and " +
					"rank the top 5 with a short rationale each.",
				UserPromptTemplate: "Topic: {topic}\n\nContext:\n{context}\n\n" +
					"Visionary's ideas:\n{visionary_ideas}\n\n" +
					"Pragmatist's ideas:\n{pragmatist_ideas}\n\n" +
					"Futurist's ideas:\n{futurist_ideas}\n\n" +
					"Produce the curated shortlist.",
			},
		},
		Workflow: WorkflowConfig{
			Type:   WorkflowHybrid,
			Rounds: 1,
			Steps: []WorkflowStep{
				{Agents: []string{"visionary", "pragmatist", "futurist"}, Phase: PhaseDiverge, Parallel: true},
				{Agents: []string{"curator"}, Phase: PhaseIntegrate, Context: []string{"visionary", "pragmatist", "futurist"}},
			},
		},
	}
}
