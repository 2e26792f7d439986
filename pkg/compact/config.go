// pkg/compact/config.go

package compact

// Progress receives one increment per unit of work a policy finishes.
// *mpb.Bar satisfies it.
type Progress interface {
	IncrBy(n int)
}

// Config for compaction runs.
type Config struct {
	Progress Progress // may be nil
}

func (c *Config) incr(n int) {
	if c != nil && c.Progress != nil && n > 0 {
		c.Progress.IncrBy(n)
	}
}
