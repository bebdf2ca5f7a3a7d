package config

// Config is the umbrella configuration object returned by Initialize()
// and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// System-wide defaults
	Defaults Defaults

	// Mode registry
	Modes *ModeRegistry
}

// Stats contains statistics about loaded configuration
type Stats struct {
	Modes  int
	Agents int
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() Stats {
	s := Stats{}
	if c.Modes != nil {
		s.Modes = c.Modes.Len()
		for _, id := range c.Modes.List() {
			if m, err := c.Modes.Get(id); err == nil {
				s.Agents += len(m.Agents)
			}
		}
	}
	return s
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetMode retrieves a mode configuration by ID.
// This is a convenience method that wraps ModeRegistry.Get().
func (c *Config) GetMode(id string) (*ModeConfig, error) {
	return c.Modes.Get(id)
}
