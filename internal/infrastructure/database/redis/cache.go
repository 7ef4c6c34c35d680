package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/internal/intelligence/roster_extractor"
	"github.com/turtacn/rostertag/pkg/errors"
)

var (
	ErrCacheUnavailable    = errors.New(errors.ErrCodeCacheError, "cache unavailable")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// ComputeFunc extracts the texts the cache could not answer.
type ComputeFunc func(ctx context.Context, misses []string) (map[string]roster_extractor.TextTokens, roster_extractor.Diagnostics, error)

// Resolution is the merged outcome of a cached lookup plus computation.
type Resolution struct {
	Tokens      map[string]roster_extractor.TextTokens
	Diagnostics roster_extractor.Diagnostics
	Hits        int
	Misses      int
	Shared      bool
}

// ResultCache stores per-text extraction output namespaced by the pattern-set
// fingerprint, so a glossary or config change never reads stale tokens.
type ResultCache interface {
	GetMany(ctx context.Context, fingerprint string, texts []string) (map[string]roster_extractor.TextTokens, error)
	SetMany(ctx context.Context, fingerprint string, results map[string]roster_extractor.TextTokens) error
	Resolve(ctx context.Context, fingerprint string, texts []string, compute ComputeFunc) (*Resolution, error)
	Invalidate(ctx context.Context, fingerprint string) (int64, error)
	Ping(ctx context.Context) error
}

type resultCache struct {
	client *Client
	logger logging.Logger
	ttl    time.Duration
	jitter float64
	group  singleflight.Group
}

type CacheOption func(*resultCache)

// WithTTL overrides the client TTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *resultCache) { c.ttl = ttl }
}

// WithJitter spreads expiry by up to the given fraction of the TTL.
func WithJitter(fraction float64) CacheOption {
	return func(c *resultCache) { c.jitter = fraction }
}

func NewResultCache(client *Client, log logging.Logger, opts ...CacheOption) ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &resultCache{
		client: client,
		logger: log.Named("result_cache"),
		ttl:    client.TTL(),
		jitter: 0.1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *resultCache) key(fingerprint, text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.client.Key("tokens", fingerprint, hex.EncodeToString(sum[:]))
}

func (c *resultCache) expiry() time.Duration {
	if c.ttl <= 0 || c.jitter <= 0 {
		return c.ttl
	}
	spread := int64(float64(c.ttl) * c.jitter)
	if spread <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(rand.Int63n(spread))
}

func (c *resultCache) GetMany(ctx context.Context, fingerprint string, texts []string) (map[string]roster_extractor.TextTokens, error) {
	out := make(map[string]roster_extractor.TextTokens)
	if fingerprint == "" || len(texts) == 0 {
		return out, nil
	}
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(fingerprint, t)
	}
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, ErrCacheUnavailable.WithCause(err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var tt roster_extractor.TextTokens
		if err := json.Unmarshal([]byte(s), &tt); err != nil {
			c.logger.Warn("dropping undecodable cache entry", logging.String("key", keys[i]), logging.Err(err))
			continue
		}
		out[texts[i]] = tt
	}
	return out, nil
}

func (c *resultCache) SetMany(ctx context.Context, fingerprint string, results map[string]roster_extractor.TextTokens) error {
	if fingerprint == "" || len(results) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for text, tt := range results {
		data, err := json.Marshal(tt)
		if err != nil {
			return ErrSerializationFailed.WithCause(err)
		}
		pipe.Set(ctx, c.key(fingerprint, text), data, c.expiry())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return ErrCacheUnavailable.WithCause(err)
	}
	return nil
}

// Resolve answers texts from the cache and computes the rest.  Concurrent
// callers asking for the same misses under the same fingerprint share one
// computation.  Results are written back only when the computation reported
// no failed column, so sentinels never outlive their run.
func (c *resultCache) Resolve(ctx context.Context, fingerprint string, texts []string, compute ComputeFunc) (*Resolution, error) {
	if fingerprint == "" {
		tokens, diag, err := compute(ctx, texts)
		if err != nil {
			return nil, err
		}
		return &Resolution{Tokens: tokens, Diagnostics: diag, Misses: len(texts)}, nil
	}

	cached, err := c.GetMany(ctx, fingerprint, texts)
	if err != nil {
		c.logger.Warn("result cache read failed, computing every text", logging.Err(err))
		cached = map[string]roster_extractor.TextTokens{}
	}

	var misses []string
	for _, t := range texts {
		if _, ok := cached[t]; !ok {
			misses = append(misses, t)
		}
	}
	res := &Resolution{
		Tokens: make(map[string]roster_extractor.TextTokens, len(texts)),
		Hits:   len(texts) - len(misses),
		Misses: len(misses),
	}
	for t, tt := range cached {
		res.Tokens[t] = tt
	}
	if len(misses) == 0 {
		return res, nil
	}

	type computed struct {
		tokens map[string]roster_extractor.TextTokens
		diag   roster_extractor.Diagnostics
	}
	v, err, shared := c.group.Do(fingerprint+":"+digest(misses), func() (interface{}, error) {
		tokens, diag, err := compute(ctx, misses)
		if err != nil {
			return nil, err
		}
		if !diag.HasErrors() {
			if err := c.SetMany(ctx, fingerprint, tokens); err != nil {
				c.logger.Warn("result cache write failed", logging.Err(err))
			}
		}
		return computed{tokens: tokens, diag: diag}, nil
	})
	if err != nil {
		return nil, err
	}
	out := v.(computed)
	for t, tt := range out.tokens {
		res.Tokens[t] = tt
	}
	res.Diagnostics = out.diag
	res.Shared = shared
	return res, nil
}

func (c *resultCache) Invalidate(ctx context.Context, fingerprint string) (int64, error) {
	match := c.client.Key("tokens", fingerprint, "*")
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, 500).Result()
		if err != nil {
			return deleted, ErrCacheUnavailable.WithCause(err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil && err != redis.Nil {
				return deleted, ErrCacheUnavailable.WithCause(err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *resultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

func digest(texts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(texts, "\x00")))
	return hex.EncodeToString(sum[:])
}

//Personal.AI order the ending
