package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// modesYAMLConfig represents the complete modes.yaml file structure.
type modesYAMLConfig struct {
	Modes    map[string]ModeConfig `yaml:"modes"`
	Defaults *Defaults             `yaml:"defaults"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load modes.yaml from configDir (optional — built-ins alone are valid)
//  2. Merge built-in + user-defined modes (user overrides built-in)
//  3. Merge defaults (user values override built-in defaults)
//  4. Build the mode registry
//  5. Validate all configuration
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"modes", stats.Modes,
		"agents", stats.Agents)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	userCfg, err := loadModesYAML(configDir)
	if err != nil {
		return nil, err
	}

	modes := mergeModes(GetBuiltinModes(), userCfg.Modes)

	defaults := GetBuiltinDefaults()
	if userCfg.Defaults != nil {
		// User defaults win; zero values fall back to built-ins.
		if err := mergo.Merge(&defaults, *userCfg.Defaults, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge defaults: %w", err)
		}
	}

	return &Config{
		configDir: configDir,
		Defaults:  defaults,
		Modes:     NewModeRegistry(modes),
	}, nil
}

// loadModesYAML reads modes.yaml from the config directory. A missing file
// is not an error — built-in modes are sufficient to run.
func loadModesYAML(configDir string) (*modesYAMLConfig, error) {
	path := filepath.Join(configDir, "modes.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No modes.yaml found, using built-in modes only", "path", path)
			return &modesYAMLConfig{}, nil
		}
		return nil, NewLoadError("modes.yaml", err)
	}

	var cfg modesYAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewLoadError("modes.yaml", fmt.Errorf("%w: %w", ErrInvalidYAML, err))
	}

	return &cfg, nil
}

// mergeModes merges built-in and user-defined mode configurations.
// User-defined modes override built-in modes with the same ID.
func mergeModes(builtin map[string]ModeConfig, user map[string]ModeConfig) map[string]*ModeConfig {
	result := make(map[string]*ModeConfig, len(builtin)+len(user))

	for id, mode := range builtin {
		modeCopy := mode
		result[id] = &modeCopy
	}

	for id, mode := range user {
		modeCopy := mode
		result[id] = &modeCopy
	}

	return result
}
