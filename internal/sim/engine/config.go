package engine

type Config struct {
	ID       string
	Mode     Mode
	MoveMode MoveMode

	// Export a snapshot to the snapshot sink every N ticks. 0 disables.
	SnapshotEveryTicks int
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "default"
	}
	if !c.Mode.Valid() {
		c.Mode = ModeMulti
	}
	if !c.MoveMode.Valid() {
		c.MoveMode = MoveSet
	}
	if c.SnapshotEveryTicks < 0 {
		c.SnapshotEveryTicks = 0
	}
}
