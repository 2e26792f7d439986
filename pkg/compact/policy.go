// pkg/compact/policy.go

package compact

import (
	"sort"
	"sync"
	"time"

	"AveCompact/pkg/extent"
	"AveCompact/pkg/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avecompact")

// Policy compacts a private copy of a medium; the argument is never mutated.
type Policy func(m *extent.Medium, conf *Config) (*Result, error)

var (
	policyLock sync.Mutex
	policies   = make(map[string]Policy)
)

func init() {
	Register("block", Blocks)
	Register("extent", Extents)
}

// Register makes a policy available by name.
func Register(name string, p Policy) {
	policyLock.Lock()
	defer policyLock.Unlock()
	policies[name] = p
}

// Lookup returns the policy registered under name.
func Lookup(name string) (Policy, error) {
	policyLock.Lock()
	defer policyLock.Unlock()
	p, ok := policies[name]
	if !ok {
		return nil, errors.Errorf("unknown policy %q", name)
	}
	return p, nil
}

// Policies returns the registered names in sorted order.
func Policies() []string {
	policyLock.Lock()
	defer policyLock.Unlock()
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report describes one finished compaction run.
type Report struct {
	RunID       string
	Policy      string
	Checksum    uint64
	Moves       int
	Steps       int
	TotalBlocks int
	Duration    time.Duration
	CPU         utils.Usage
	Medium      *extent.Medium `json:"-"`
}

// Run compacts m with the named policy.
func Run(m *extent.Medium, name string, conf *Config) (*Report, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	r := &Report{
		RunID:       uuid.New().String(),
		Policy:      name,
		TotalBlocks: m.TotalBlocks(),
	}
	logger.Debugf("run %s: %s policy over %d extents, %d blocks", r.RunID, name, m.Len(), r.TotalBlocks)
	start := utils.TakeUsage()
	res, err := p(m, conf)
	r.CPU = utils.TakeUsage().Sub(start)
	r.Duration = r.CPU.Wall
	if err != nil {
		logger.Errorf("run %s: %s policy failed after %s: %s", r.RunID, name, r.Duration, err)
		return nil, err
	}
	if err = res.Medium.Verify(); err != nil {
		return nil, errors.Wrapf(err, "run %s", r.RunID)
	}
	r.Checksum, r.Moves, r.Steps, r.Medium = res.Checksum, res.Moves, res.Steps, res.Medium
	logger.Infof("run %s: %s policy moved %d in %s, checksum %d", r.RunID, name, r.Moves, r.Duration, r.Checksum)
	return r, nil
}
