package config

import (
	"go.uber.org/zap"

	"github.com/nikhilrp/anchordb/core/storage/buffer"
	"github.com/nikhilrp/anchordb/core/storage/disk"
	"github.com/nikhilrp/anchordb/pkg/logger"
	"github.com/nikhilrp/anchordb/pkg/metrics"
)

// Engine bundles the storage-core components a Config describes: the
// logger and metrics registry every constructor below takes, and a
// buffer pool manager already wired to them. Building these separately
// from Config's fields, one positional constructor at a time, is the
// long-parameter-list style Config exists to replace.
type Engine struct {
	Logger   *zap.Logger
	Metrics  *metrics.Registry
	Shutdown metrics.ShutdownFunc
	BPM      *buffer.BufferPoolManager
}

// NewEngine builds an Engine over d using cfg's pool size, replacer K,
// logger and metrics settings.
func NewEngine(cfg Config, d disk.Manager) (*Engine, error) {
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	reg, shutdown, err := metrics.New(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	bpm := buffer.New(cfg.PoolSize, d, cfg.ReplacerK, log, reg)
	return &Engine{Logger: log, Metrics: reg, Shutdown: shutdown, BPM: bpm}, nil
}
