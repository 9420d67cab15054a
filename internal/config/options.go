package config

import (
	"github.com/hyperast/hyperast-go/pkg/diff"
	"github.com/hyperast/hyperast-go/pkg/hyperast"
)

// DiffOptions translates the loaded DiffConfig into [diff.Options].
func (c DiffConfig) DiffOptions() diff.Options {
	return diff.Options{
		MinHeight:         c.MinHeight,
		BottomUpThreshold: c.BottomUpThreshold,
		EnableRecovery:    c.EnableRecovery,
	}
}

// StoreOptions translates the loaded CacheConfig into [hyperast.Options].
func (c CacheConfig) StoreOptions() hyperast.Options {
	return hyperast.Options{
		NodeCapacity:     c.NodeCapacity,
		ViewCacheEntries: c.ViewCacheEntries,
	}
}
