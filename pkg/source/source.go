// pkg/source/source.go

package source

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"AveCompact/pkg/compress"
	"AveCompact/pkg/extent"
	"AveCompact/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avecompact")

// MaxInput caps the size of a disk map after decompression.
const MaxInput = 64 << 20

var retryBackoff = time.Second

// Config for input sources.
type Config struct {
	Retries   int           // extra attempts for transient failures
	ReadLimit int64         // bytes per second, 0 for unlimited
	Compress  string        // auto, none, lz4 or zstd
	Key       string        // key holding the disk map (redis)
	Timeout   time.Duration // dial and read timeout for remote sources
}

// Source fetches the raw bytes of one disk map.
type Source interface {
	String() string
	// Open returns the raw (possibly compressed) content.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name is used to pick a decompressor when Config.Compress is auto.
	Name() string
}

// Creator builds a source for an address with the scheme stripped.
type Creator func(scheme, addr string, conf *Config) (Source, error)

var (
	creatorLock sync.Mutex
	creators    = make(map[string]Creator)
)

// Register makes a source available under a URI scheme.
func Register(scheme string, c Creator) {
	creatorLock.Lock()
	defer creatorLock.Unlock()
	creators[scheme] = c
}

// NewSource resolves uri into a source. URIs without a scheme are local
// paths, "-" is standard input.
func NewSource(uri string, conf *Config) (Source, error) {
	if conf == nil {
		conf = &Config{}
	}
	scheme, addr := "file", uri
	if p := strings.Index(uri, "://"); p > 0 {
		scheme, addr = strings.ToLower(uri[:p]), uri[p+3:]
	}
	creatorLock.Lock()
	c, ok := creators[scheme]
	creatorLock.Unlock()
	if !ok {
		return nil, errors.Errorf("unsupported source scheme %q", scheme)
	}
	return c(scheme, addr, conf)
}

// Load fetches, decompresses and decodes the disk map held by s.
func Load(ctx context.Context, s Source, conf *Config) ([]int, error) {
	if conf == nil {
		conf = &Config{}
	}
	var raw []byte
	err := withRetry(ctx, conf.Retries, s.String(), func() error {
		r, err := s.Open(ctx)
		if err != nil {
			return err
		}
		defer r.Close()
		raw, err = io.ReadAll(io.LimitReader(newLimitedReader(r, conf.ReadLimit), MaxInput+1))
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s)
	}
	if len(raw) > MaxInput {
		return nil, errors.Errorf("%s is larger than %d bytes", s, MaxInput)
	}

	c := compress.ForName(s.Name())
	if conf.Compress != "" && conf.Compress != "auto" {
		if c = compress.NewCompressor(conf.Compress); c == nil {
			return nil, errors.Errorf("unsupported compress algorithm: %s", conf.Compress)
		}
	}
	if c.Name() != "none" {
		if raw, err = compress.Inflate(c, raw, MaxInput); err != nil {
			return nil, errors.Wrapf(err, "inflate %s", s)
		}
	}
	logger.Debugf("loaded %d bytes from %s", len(raw), s)
	return ParseDigits(string(raw))
}

// ParseDigits decodes one line of decimal digits. Surrounding whitespace is
// ignored; anything else is invalid.
func ParseDigits(line string) ([]int, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, errors.Wrap(extent.ErrInvalidInput, "empty disk map")
	}
	digits := make([]int, len(line))
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c < '0' || c > '9' {
			return nil, errors.Wrapf(extent.ErrInvalidInput, "%q at offset %d", c, i)
		}
		digits[i] = int(c - '0')
	}
	return digits, nil
}

func withRetry(ctx context.Context, retries int, what string, f func() error) error {
	var err error
	for i := 0; i <= retries; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i == retries || !shouldRetry(err) {
			break
		}
		wait := retryBackoff * time.Duration(i*3+1)
		logger.Warnf("read %s: %s, retry in %s", what, err, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

type permanent interface {
	Permanent() bool
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var p permanent
	if errors.As(err, &p) {
		return !p.Permanent()
	}
	return true
}

type permanentError struct{ error }

func (e permanentError) Permanent() bool { return true }
func (e permanentError) Unwrap() error   { return e.error }
