// pkg/source/redis.go

package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"AveCompact/pkg/version"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultKey = "diskmap"

type redisSource struct {
	key string
	opt *redis.Options
}

func init() {
	Register("redis", newRedisSource)
	Register("rediss", newRedisSource)
}

// newRedisSource reads the disk map stored as a plain string under a key.
func newRedisSource(driver, addr string, conf *Config) (Source, error) {
	url := driver + "://" + addr
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", url, err)
	}
	if opt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
		opt.Password = os.Getenv("REDIS_PASSWORD")
	}
	opt.ClientName = version.UserAgent()
	opt.MaxRetries = conf.Retries
	if opt.MaxRetries == 0 {
		opt.MaxRetries = -1 // 0 means the client default
	}
	opt.MinRetryBackoff = time.Millisecond * 100
	opt.MaxRetryBackoff = time.Second * 10
	if conf.Timeout > 0 {
		opt.DialTimeout = conf.Timeout
		opt.ReadTimeout = conf.Timeout
	}
	key := conf.Key
	if key == "" {
		key = defaultKey
	}
	return &redisSource{key: key, opt: opt}, nil
}

func (r *redisSource) String() string {
	return fmt.Sprintf("redis://%s/%d#%s", r.opt.Addr, r.opt.DB, r.key)
}

func (r *redisSource) Name() string {
	return r.key
}

func (r *redisSource) Open(ctx context.Context) (io.ReadCloser, error) {
	rdb := redis.NewClient(r.opt)
	defer rdb.Close()
	body, err := rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, permanentError{fmt.Errorf("key %s not found", r.key)}
	}
	if err != nil {
		// the client already retried
		return nil, permanentError{err}
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
