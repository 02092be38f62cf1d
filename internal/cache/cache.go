package cache

import (
	"time"

	"github.com/spigell/devscout/internal/model"
)

type config struct {
	now func() time.Time
	rec Recorder
}

type Option func(*config)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

func WithRecorder(rec Recorder) Option {
	return func(c *config) {
		c.rec = rec
	}
}

// Cache groups the per-kind stores that share one TTL.
type Cache struct {
	Raw      *Store[*model.RawData]
	Profiles *Store[*model.Profile]
	DNA      *Store[*model.CodeDNA]

	ttl time.Duration
}

// Status is the externally visible cache state.
type Status struct {
	RawEntries     int `json:"rawEntries"`
	ProfileEntries int `json:"profileEntries"`
	DNAEntries     int `json:"dnaEntries"`
	TTLSeconds     int `json:"ttlSeconds"`
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		Raw:      NewStore[*model.RawData]("raw", ttl, opts...),
		Profiles: NewStore[*model.Profile]("profile", ttl, opts...),
		DNA:      NewStore[*model.CodeDNA]("dna", ttl, opts...),
		ttl:      ttl,
	}
}

// Invalidate drops id from every store. An empty id clears everything.
func (c *Cache) Invalidate(id string) {
	if Key(id) == "" {
		c.Raw.Clear()
		c.Profiles.Clear()
		c.DNA.Clear()
		return
	}
	c.Raw.Delete(id)
	c.Profiles.Delete(id)
	c.DNA.Delete(id)
}

func (c *Cache) Status() Status {
	return Status{
		RawEntries:     c.Raw.Len(),
		ProfileEntries: c.Profiles.Len(),
		DNAEntries:     c.DNA.Len(),
		TTLSeconds:     int(c.ttl / time.Second),
	}
}
