package blink

// Config controls reassignment behavior.
//
// The zero value is NOT ready to use; call ApplyDefaults or start from
// DefaultConfig.
type Config struct {
	// AllowNonRestoredState tolerates prior state whose operator no longer
	// exists in the new topology. When true, such state is skipped with a
	// diagnostic instead of failing the restore.
	//
	// Default: false
	AllowNonRestoredState bool `yaml:"allowNonRestoredState"`

	// ValidateIntersections verifies that every keyed handle intersection
	// stays within the requested range, turning handle implementation bugs
	// into a typed error instead of silent state corruption.
	//
	// Default: true
	ValidateIntersections *bool `yaml:"validateIntersections"`
}

// DefaultConfig returns a configuration with recommended defaults.
//
// Returns:
//   - *Config: Non-restored state rejected, intersection validation on
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)

	return cfg
}

// ApplyDefaults fills unset fields with their defaults in place.
//
// Parameters:
//   - cfg: Configuration to complete; boolean fields with explicit values
//     are preserved
func ApplyDefaults(cfg *Config) {
	if cfg.ValidateIntersections == nil {
		validate := true
		cfg.ValidateIntersections = &validate
	}
}

// Validate checks the configuration for consistency.
//
// Returns:
//   - error: ErrInvalidConfig when a field is out of range, nil otherwise
func (c *Config) Validate() error {
	// All current fields are booleans with no cross-field constraints.
	return nil
}

// validateIntersections resolves the optional flag to its effective value.
func (c *Config) validateIntersections() bool {
	return c.ValidateIntersections == nil || *c.ValidateIntersections
}
