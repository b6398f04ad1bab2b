package blink

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.AllowNonRestoredState)
	require.NotNil(t, cfg.ValidateIntersections)
	require.True(t, *cfg.ValidateIntersections)
	require.True(t, cfg.validateIntersections())
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		ApplyDefaults(&cfg)

		require.False(t, cfg.AllowNonRestoredState)
		require.NotNil(t, cfg.ValidateIntersections)
		require.True(t, *cfg.ValidateIntersections)
	})

	t.Run("preserves explicit values", func(t *testing.T) {
		disabled := false
		cfg := Config{
			AllowNonRestoredState: true,
			ValidateIntersections: &disabled,
		}
		ApplyDefaults(&cfg)

		require.True(t, cfg.AllowNonRestoredState)
		require.False(t, *cfg.ValidateIntersections)
		require.False(t, cfg.validateIntersections())
	})
}

func TestConfig_YAML(t *testing.T) {
	t.Run("unmarshals all fields", func(t *testing.T) {
		yamlConfig := `
allowNonRestoredState: true
validateIntersections: false
`
		var cfg Config
		err := yaml.Unmarshal([]byte(yamlConfig), &cfg)

		require.NoError(t, err)
		require.True(t, cfg.AllowNonRestoredState)
		require.NotNil(t, cfg.ValidateIntersections)
		require.False(t, *cfg.ValidateIntersections)
	})

	t.Run("missing fields fall back to defaults", func(t *testing.T) {
		var cfg Config
		err := yaml.Unmarshal([]byte(`allowNonRestoredState: true`), &cfg)
		require.NoError(t, err)

		ApplyDefaults(&cfg)

		require.True(t, cfg.AllowNonRestoredState)
		require.True(t, cfg.validateIntersections())
	})
}
