package steps

import "time"

// MinSimilarityFloor is the lowest floor retrieval will ever use.
const MinSimilarityFloor = 0.2

type Config struct {
	// SimilarityFloor is the minimum similarity any retrieved chunk must reach,
	// whatever the request asks for.
	SimilarityFloor  float64
	MinMatchCount    int
	FallbackLogLimit int
	DefaultTopK      int
	RecentListLimit  int
	// Location defines calendar days for date questions, streaks and rendering.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		SimilarityFloor:  MinSimilarityFloor,
		MinMatchCount:    12,
		FallbackLogLimit: 20,
		DefaultTopK:      8,
		RecentListLimit:  10,
		Location:         time.UTC,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SimilarityFloor < MinSimilarityFloor {
		c.SimilarityFloor = MinSimilarityFloor
	}
	if c.MinMatchCount <= 0 {
		c.MinMatchCount = d.MinMatchCount
	}
	if c.FallbackLogLimit <= 0 {
		c.FallbackLogLimit = d.FallbackLogLimit
	}
	if c.DefaultTopK <= 0 {
		c.DefaultTopK = d.DefaultTopK
	}
	if c.RecentListLimit <= 0 {
		c.RecentListLimit = d.RecentListLimit
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	return c
}
