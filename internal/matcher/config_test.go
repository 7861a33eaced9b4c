package matcher

import "testing"

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if err := config.Validate(); err != nil {
		t.Fatalf("Default config must validate: %v", err)
	}
	if config.DateWindowDays != 3 {
		t.Errorf("Expected default date window 3, got %d", config.DateWindowDays)
	}
	if config.AcceptThreshold != 0.6 {
		t.Errorf("Expected default accept threshold 0.6, got %f", config.AcceptThreshold)
	}
	if config.Weights.Amount != 0.5 || config.Weights.Date != 0.3 || config.Weights.Description != 0.2 {
		t.Errorf("Unexpected default weights: %+v", config.Weights)
	}
}

func TestPresetConfigsValidate(t *testing.T) {
	for name, config := range map[string]*Config{
		"strict":  StrictConfig(),
		"relaxed": RelaxedConfig(),
	} {
		if err := config.Validate(); err != nil {
			t.Errorf("%s config must validate: %v", name, err)
		}
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative date window", func(c *Config) { c.DateWindowDays = -1 }},
		{"threshold above one", func(c *Config) { c.AcceptThreshold = 1.5 }},
		{"near-miss above accept", func(c *Config) { c.NearMissThreshold = 0.9 }},
		{"weights do not sum", func(c *Config) { c.Weights = Weights{Amount: 0.1, Date: 0.1, Description: 0.1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			if err := config.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	clone := original.Clone()

	clone.DateWindowDays = 99
	if original.DateWindowDays == 99 {
		t.Error("Clone must not share state with the original")
	}
}
