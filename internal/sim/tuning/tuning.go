package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	// Store sessions.
	AutoCloseDistance  float64 `yaml:"auto_close_distance"`
	SessionCheckTicks  int     `yaml:"session_check_ticks"`
	MaxMoveStep        int     `yaml:"max_move_step"`
	ClientQueueDefault int     `yaml:"client_queue_default"`
	ClientQueueMax     int     `yaml:"client_queue_max"`

	// Stacks granted to freshly joined actors (stack type -> count).
	StarterStacks map[string]int `yaml:"starter_stacks"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         5,
		AutoCloseDistance:  3,
		SessionCheckTicks:  1, // 0.2s at the default tick rate
		MaxMoveStep:        1,
		ClientQueueDefault: 8,
		ClientQueueMax:     64,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.TickRateHz <= 0 {
		return t, fmt.Errorf("tuning.yaml: tick_rate_hz must be positive")
	}
	if t.AutoCloseDistance <= 0 {
		return t, fmt.Errorf("tuning.yaml: auto_close_distance must be positive")
	}
	if t.SessionCheckTicks <= 0 {
		t.SessionCheckTicks = 1
	}
	return t, nil
}
