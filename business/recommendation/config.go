package recommendation

import "time"

type Config struct {
	ModelVersion string

	// FreshnessWindow is how long persisted rows are served without recomputation.
	FreshnessWindow time.Duration

	// RequestTimeout bounds a whole GetRecommendations call, QueryTimeout the
	// candidate query alone.
	RequestTimeout time.Duration
	QueryTimeout   time.Duration

	// LockWait is how long a request waits for a concurrent generation of the
	// same user before generating itself.
	LockWait time.Duration

	ScoringWorkers int

	ViewLimit      int
	ShortlistLimit int
	CandidateLimit int
	DefaultLimit   int
	MaxLimit       int
}

const (
	defaultModelVersion    = "heuristic-v1"
	defaultFreshnessWindow = time.Hour
	defaultRequestTimeout  = 5 * time.Second
	defaultQueryTimeout    = 2 * time.Second
	defaultLockWait        = 250 * time.Millisecond
	defaultScoringWorkers  = 4
	defaultViewLimit       = 20
	defaultShortlistLimit  = 20
	defaultCandidateLimit  = 50
	defaultLimit           = 10
	defaultMaxLimit        = 50
)

func DefaultConfig() Config {
	return Config{
		ModelVersion:    defaultModelVersion,
		FreshnessWindow: defaultFreshnessWindow,
		RequestTimeout:  defaultRequestTimeout,
		QueryTimeout:    defaultQueryTimeout,
		LockWait:        defaultLockWait,
		ScoringWorkers:  defaultScoringWorkers,
		ViewLimit:       defaultViewLimit,
		ShortlistLimit:  defaultShortlistLimit,
		CandidateLimit:  defaultCandidateLimit,
		DefaultLimit:    defaultLimit,
		MaxLimit:        defaultMaxLimit,
	}
}

// withDefaults fills every zero field from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.ModelVersion == "" {
		c.ModelVersion = d.ModelVersion
	}
	if c.FreshnessWindow <= 0 {
		c.FreshnessWindow = d.FreshnessWindow
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = d.QueryTimeout
	}
	if c.LockWait <= 0 {
		c.LockWait = d.LockWait
	}
	if c.ScoringWorkers <= 0 {
		c.ScoringWorkers = d.ScoringWorkers
	}
	if c.ViewLimit <= 0 {
		c.ViewLimit = d.ViewLimit
	}
	if c.ShortlistLimit <= 0 {
		c.ShortlistLimit = d.ShortlistLimit
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = d.CandidateLimit
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = d.MaxLimit
	}

	return c
}
