// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package miner implements Gnosis payload building.
package miner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"github.com/gnosischain/gnosis-engine/core"
	"github.com/gnosischain/gnosis-engine/core/state"
	"github.com/gnosischain/gnosis-engine/core/vm"
	"github.com/gnosischain/gnosis-engine/internal/enginelog"
	"github.com/gnosischain/gnosis-engine/params"
)

// Miner builds payloads on request of the consensus layer. Each payload job
// runs on a worker pool and keeps rebuilding until it is resolved.
type Miner struct {
	confMu sync.RWMutex // The lock used to protect the config fields: GasCeil and ExtraData
	config *Config

	spec        *params.ChainSpec
	backend     Backend
	txpool      TxPool
	interpreter vm.Interpreter
	rooter      StateRooter
	filter      *core.TxFilter
	metrics     *Metrics
	workers     pond.Pool
	log         log.Logger

	lifeCtxCancel context.CancelFunc
	lifeCtx       context.Context
}

// New creates a miner. pool may be nil, in which case only empty payloads are
// built; filter and metrics may be nil as well.
func New(spec *params.ChainSpec, config *Config, backend Backend, pool TxPool, interpreter vm.Interpreter, rooter StateRooter, filter *core.TxFilter, metrics *Metrics) *Miner {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := *config
	return &Miner{
		config:        &cfg,
		spec:          spec,
		backend:       backend,
		txpool:        pool,
		interpreter:   interpreter,
		rooter:        rooter,
		filter:        filter,
		metrics:       metrics,
		workers:       pond.NewPool(max(cfg.Workers, 1)),
		log:           enginelog.New("miner"),
		lifeCtxCancel: cancel,
		lifeCtx:       ctx,
	}
}

// SetExtra sets the content used to initialize the block extra field.
func (miner *Miner) SetExtra(extra []byte) error {
	if uint64(len(extra)) > params.MaximumExtraDataSize {
		return fmt.Errorf("extra exceeds max length. %d > %v", len(extra), params.MaximumExtraDataSize)
	}
	miner.confMu.Lock()
	miner.config.ExtraData = string(extra)
	miner.confMu.Unlock()
	return nil
}

// SetGasCeil sets the gaslimit to strive for when building blocks.
func (miner *Miner) SetGasCeil(ceil uint64) {
	miner.confMu.Lock()
	miner.config.GasCeil = ceil
	miner.confMu.Unlock()
}

func (miner *Miner) settings() Config {
	miner.confMu.RLock()
	defer miner.confMu.RUnlock()
	return *miner.config
}

// StartPayload builds the empty payload for args right away and starts a job
// filling it with pool transactions. The job stops when the payload is
// resolved, when NewPayloadTimeout elapses or when the miner is closed.
func (miner *Miner) StartPayload(args *BuildPayloadArgs) (*Payload, error) {
	empty, err := miner.buildEmptyPayload(args)
	if err != nil {
		return nil, err
	}
	cfg := miner.settings()
	ctx, cancel := context.WithTimeout(miner.lifeCtx, cfg.NewPayloadTimeout)
	payload := newPayload(args.Id(), empty, cancel)
	if miner.txpool == nil {
		cancel()
		return payload, nil
	}
	payload.task = miner.workers.Submit(func() {
		defer cancel()
		miner.runPayloadJob(ctx, payload, args, cfg.Recommit)
	})
	return payload, nil
}

// runPayloadJob rebuilds the payload at most once per recommit interval,
// feeding every attempt with the best payload so far and the parent state
// reads of the previous attempt.
func (miner *Miner) runPayloadJob(ctx context.Context, payload *Payload, args *BuildPayloadArgs, recommit time.Duration) {
	var (
		limiter = rate.NewLimiter(rate.Every(recommit), 1)
		cached  *state.CachedReads
		start   = time.Now()
	)
	for {
		if err := limiter.Wait(ctx); err != nil {
			miner.log.Debug("Payload job stopped", "id", payload.id, "elapsed", time.Since(start), "reason", err)
			return
		}
		outcome, err := miner.BuildPayload(ctx, args, payload.best(), cached)
		if err != nil {
			miner.log.Warn("Failed to build payload", "id", payload.id, "err", err)
			return
		}
		cached = outcome.CachedReads
		switch outcome.Kind {
		case OutcomeSuccess:
			payload.update(outcome.Payload)
		case OutcomeCancelled:
			return
		}
	}
}

// Close stops all payload jobs.
func (miner *Miner) Close() {
	miner.lifeCtxCancel()
	miner.workers.StopAndWait()
}

// ChainSpec returns the chain specification payloads are built for.
func (miner *Miner) ChainSpec() *params.ChainSpec {
	return miner.spec
}
