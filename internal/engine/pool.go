package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const restartTimeout = 10 * time.Second

// PoolConfig configures a pool of engine processes
type PoolConfig struct {
	Options
	Workers int
}

// Pool hands out engines to concurrent callers
type Pool struct {
	cfg     PoolConfig
	log     zerolog.Logger
	engines chan *Engine
}

// NewPool starts cfg.Workers engines
func NewPool(ctx context.Context, cfg PoolConfig, log zerolog.Logger) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("engine path required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	p := &Pool{
		cfg:     cfg,
		log:     log,
		engines: make(chan *Engine, cfg.Workers),
	}
	for i := 0; i < cfg.Workers; i++ {
		e, err := Start(ctx, cfg.Options)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.engines <- e
	}

	log.Info().
		Str("engine", cfg.Path).
		Int("workers", cfg.Workers).
		Int("depth", cfg.Depth).
		Int("hash_mb", cfg.HashMB).
		Int("threads", cfg.Threads).
		Msg("engine pool started")
	return p, nil
}

// Depth returns the search depth every engine in the pool uses
func (p *Pool) Depth() int {
	return p.cfg.Depth
}

// Analyse runs one search on a free engine, waiting for one if necessary
func (p *Pool) Analyse(ctx context.Context, fen string, searchMoves ...string) (*Analysis, error) {
	var e *Engine
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case e = <-p.engines:
	}
	defer p.release(e)

	return e.Analyse(ctx, fen, searchMoves...)
}

// release returns e to the pool, replacing it if its process died
func (p *Pool) release(e *Engine) {
	if !e.Broken() {
		p.engines <- e
		return
	}

	e.Close()
	ctx, cancel := context.WithTimeout(context.Background(), restartTimeout)
	defer cancel()
	fresh, err := Start(ctx, p.cfg.Options)
	if err != nil {
		p.log.Error().Err(err).Msg("failed to restart engine, pool shrinks by one")
		return
	}
	p.log.Warn().Msg("engine restarted")
	p.engines <- fresh
}

// Close stops every idle engine
func (p *Pool) Close() {
	for {
		select {
		case e := <-p.engines:
			e.Close()
		default:
			return
		}
	}
}
