package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ticksim.ai/internal/sim/engine"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	EngineID string `yaml:"engine_id" json:"engine_id"`
	Mode     string `yaml:"mode" json:"mode"`
	MoveMode string `yaml:"move_mode" json:"move_mode"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks" json:"snapshot_every_ticks"`

	// Buffered sink sizes between the engine and the log/index writers.
	TickLogQueue  int `yaml:"tick_log_queue" json:"tick_log_queue"`
	SnapshotQueue int `yaml:"snapshot_queue" json:"snapshot_queue"`

	Transport Transport `yaml:"transport" json:"transport"`
}

type Transport struct {
	MaxQueue      int `yaml:"max_queue" json:"max_queue"`
	ReadTimeoutMs int `yaml:"read_timeout_ms" json:"read_timeout_ms"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		EngineID:           "default",
		Mode:               string(engine.ModeMulti),
		MoveMode:           string(engine.MoveSet),
		SnapshotEveryTicks: 0,
		TickLogQueue:       4096,
		SnapshotQueue:      2,
		Transport: Transport{
			MaxQueue:      16,
			ReadTimeoutMs: 60000,
		},
	}
}

// Load reads path on top of Defaults, so a partial file only overrides the
// keys it sets.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) normalize() {
	t.EngineID = strings.TrimSpace(t.EngineID)
	t.Mode = strings.ToLower(strings.TrimSpace(t.Mode))
	t.MoveMode = strings.ToLower(strings.TrimSpace(t.MoveMode))
}

func (t Tuning) Validate() error {
	if t.EngineID == "" {
		return fmt.Errorf("engine_id must not be empty")
	}
	if !engine.Mode(t.Mode).Valid() {
		return fmt.Errorf("mode must be %q or %q, got %q", engine.ModeMulti, engine.ModeSingle, t.Mode)
	}
	if !engine.MoveMode(t.MoveMode).Valid() {
		return fmt.Errorf("move_mode must be %q or %q, got %q", engine.MoveSet, engine.MoveAccumulate, t.MoveMode)
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("snapshot_every_ticks must be >= 0")
	}
	if t.TickLogQueue <= 0 || t.SnapshotQueue <= 0 {
		return fmt.Errorf("tick_log_queue and snapshot_queue must be > 0")
	}
	if t.Transport.MaxQueue <= 0 || t.Transport.MaxQueue > 1024 {
		return fmt.Errorf("transport.max_queue must be in 1..1024")
	}
	if t.Transport.ReadTimeoutMs <= 0 {
		return fmt.Errorf("transport.read_timeout_ms must be > 0")
	}
	return nil
}

func (t Tuning) EngineConfig() engine.Config {
	return engine.Config{
		ID:                 t.EngineID,
		Mode:               engine.Mode(t.Mode),
		MoveMode:           engine.MoveMode(t.MoveMode),
		SnapshotEveryTicks: t.SnapshotEveryTicks,
	}
}
