// Package config is hyperast's configuration surface (SPEC_FULL.md §A.3):
// diff defaults and the store's cache-capacity budget, loaded via viper the
// same way the teacher's codefang config was (file + env + defaults).
package config

import (
	"errors"

	"github.com/hyperast/hyperast-go/pkg/diff/bottomup"
	"github.com/hyperast/hyperast-go/pkg/diff/topdown"
	"github.com/hyperast/hyperast-go/pkg/units"
)

// Config is the top-level configuration struct for cmd/hyperast.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Diff  DiffConfig  `mapstructure:"diff"`
	Cache CacheConfig `mapstructure:"cache"`
}

// DiffConfig carries the defaults for [diff.Options] (spec.md §6's diff()
// options): the top-down matcher's height floor, the bottom-up matcher's
// jaccard acceptance threshold, and whether the recovery pass runs.
type DiffConfig struct {
	MinHeight         int     `mapstructure:"min_height"`
	BottomUpThreshold float64 `mapstructure:"bottom_up_threshold"`
	EnableRecovery    bool    `mapstructure:"enable_recovery"`
}

// CacheConfig bounds the arenas and view cache a [hyperast.Store] is
// constructed with (spec.md §5's bounded-footprint requirement).
type CacheConfig struct {
	// NodeCapacity bounds the node arena; 0 is unbounded.
	NodeCapacity int `mapstructure:"node_capacity"`
	// ViewCacheEntries bounds the decompressed-view LRU cache.
	ViewCacheEntries int `mapstructure:"view_cache_entries"`
	// MemoryBudgetMiB is an advisory ceiling (MiB) surfaced to operators;
	// it is not itself enforced, since the store has no byte-level
	// accounting — NodeCapacity/ViewCacheEntries are the real caps.
	MemoryBudgetMiB int `mapstructure:"memory_budget_mib"`
}

// MemoryBudgetBytes converts MemoryBudgetMiB into bytes.
func (c CacheConfig) MemoryBudgetBytes() int64 {
	return int64(c.MemoryBudgetMiB) * units.MiB
}

// Default values, applied by [LoadConfig] when a key is absent from the
// config file and its environment override. The min-height and threshold
// defaults mirror the matcher packages' own constants, which a zero-value
// [diff.Options] also falls back to; a zero-value EnableRecovery is false,
// whereas DefaultEnableRecovery is true.
const (
	DefaultMinHeight         = topdown.DefaultMinHeight
	DefaultBottomUpThreshold = bottomup.DefaultThreshold
	DefaultEnableRecovery    = true

	DefaultNodeCapacity     = 0
	DefaultViewCacheEntries = 256
	DefaultMemoryBudgetMiB  = 512
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidMinHeight         = errors.New("diff.min_height must be non-negative")
	ErrInvalidBottomUpThreshold = errors.New("diff.bottom_up_threshold must be between 0 and 1")
	ErrInvalidNodeCapacity      = errors.New("cache.node_capacity must be non-negative")
	ErrInvalidViewCacheEntries  = errors.New("cache.view_cache_entries must be non-negative")
	ErrInvalidMemoryBudget      = errors.New("cache.memory_budget_mib must be non-negative")
)

// bottomUpThresholdMax is the upper bound for the jaccard threshold.
const bottomUpThresholdMax = 1.0

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Diff.MinHeight < 0 {
		return ErrInvalidMinHeight
	}

	if c.Diff.BottomUpThreshold < 0 || c.Diff.BottomUpThreshold > bottomUpThresholdMax {
		return ErrInvalidBottomUpThreshold
	}

	if c.Cache.NodeCapacity < 0 {
		return ErrInvalidNodeCapacity
	}

	if c.Cache.ViewCacheEntries < 0 {
		return ErrInvalidViewCacheEntries
	}

	if c.Cache.MemoryBudgetMiB < 0 {
		return ErrInvalidMemoryBudget
	}

	return nil
}
