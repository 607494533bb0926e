package miner

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aldokuritsu/powminer/internal/config"
	"github.com/aldokuritsu/powminer/internal/crypto"
	"github.com/aldokuritsu/powminer/internal/logger"
	"github.com/aldokuritsu/powminer/pkg/types"
	"github.com/aldokuritsu/powminer/pkg/worker"
)

// Errors
var (
	ErrExpired             = errors.New("mining expired")
	ErrClockFailure        = errors.New("clock failure")
	ErrNonceSpaceExhausted = worker.ErrNonceSpaceExhausted
	ErrStopped             = errors.New("mining stopped")
	ErrInvalidRequest      = errors.New("invalid mining request")
	ErrTargetTooLong       = errors.New("target prefix longer than digest")
)

// Miner runs one proof-of-work search. A Miner is single use.
type Miner struct {
	config   *config.Config
	logger   *logger.Logger
	clock    Clock
	attempts atomic.Uint64
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	mu     sync.Mutex
	result *types.Result
	err    error
}

// Option configures a Miner
type Option func(*Miner)

// WithClock replaces the system clock
func WithClock(c Clock) Option {
	return func(m *Miner) {
		m.clock = c
	}
}

// NewMiner creates a new miner instance
func NewMiner(cfg *config.Config, log *logger.Logger, opts ...Option) *Miner {
	if cfg.Workers <= 0 {
		cfg.Workers = config.DefaultWorkers
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = config.DefaultExpiration
	}
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = config.DefaultLogInterval
	}
	if log == nil {
		log = logger.Discard()
	}

	m := &Miner{
		config: cfg,
		logger: log,
		clock:  SystemClock{},
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TargetPrefix returns pattern repeated difficulty times
func TargetPrefix(pattern string, difficulty uint64) string {
	return strings.Repeat(pattern, int(difficulty))
}

// Verify recomputes the digest of (data, timestamp, nonce) and checks it
// equals hash and starts with the request's target prefix.
func Verify(req types.MiningRequest, timestamp, nonce uint64, hash string) bool {
	if !prefixFits(req) {
		return false
	}
	got := crypto.HashAttempt(req.Data, timestamp, nonce)
	return got == hash && strings.HasPrefix(got, TargetPrefix(req.Pattern, req.Difficulty))
}

// prefixFits reports whether the target prefix can appear in a hex digest at all
func prefixFits(req types.MiningRequest) bool {
	if req.Difficulty == 0 {
		return true
	}
	return uint64(len(req.Pattern)) <= uint64(crypto.HexLen)/req.Difficulty
}

// Mine searches for a nonce whose digest starts with the request's target prefix.
// A match found after the expiration threshold is discarded with ErrExpired.
func (m *Miner) Mine(req types.MiningRequest) (*types.Result, error) {
	if req.Data == "" || req.Pattern == "" {
		return nil, fmt.Errorf("%w: data and pattern must not be empty", ErrInvalidRequest)
	}
	if !prefixFits(req) {
		return nil, fmt.Errorf("%w: %d x %q exceeds %d hex characters",
			ErrTargetTooLong, req.Difficulty, req.Pattern, crypto.HexLen)
	}

	prefix := TargetPrefix(req.Pattern, req.Difficulty)
	start := m.clock.Now()

	var logTicker *time.Ticker
	var logDone chan struct{}
	if m.config.Verbose {
		logTicker = time.NewTicker(time.Duration(m.config.LogInterval) * time.Second)
		logDone = make(chan struct{})
		go m.periodicLogger(logTicker, logDone, start)

		m.logger.Debugf("Mining started with %d workers, target %q, logging every %d seconds",
			m.config.Workers, prefix, m.config.LogInterval)
	}

	if m.config.Workers <= 1 {
		w := worker.NewWorker(&types.WorkerConfig{
			Data:   req.Data,
			Prefix: prefix,
			Start:  0,
			Stride: 1,
		}, &m.attempts, m.timestamp)
		res, err := w.Search(m.done)
		m.settle(0, res, err, start)
	} else {
		for i := 0; i < m.config.Workers; i++ {
			m.wg.Add(1)
			go m.worker(i, req.Data, prefix, start)
		}
		m.wg.Wait()
	}

	if logTicker != nil {
		logTicker.Stop()
		close(logDone)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return nil, ErrStopped
	}
	m.result.Attempts = m.attempts.Load()
	return m.result, nil
}

// worker runs the mining logic for a single worker
func (m *Miner) worker(workerID int, data, prefix string, start time.Time) {
	defer m.wg.Done()

	w := worker.NewWorker(&types.WorkerConfig{
		Data:   data,
		Prefix: prefix,
		Start:  uint64(workerID),
		Stride: uint64(m.config.Workers),
	}, &m.attempts, m.timestamp)

	res, err := w.Search(m.done)
	if res == nil && err == nil {
		return
	}
	m.settle(workerID, res, err, start)
}

// settle records the first outcome and stops the remaining workers
func (m *Miner) settle(workerID int, res *types.WorkerResult, err error, start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.result != nil || m.err != nil {
		return
	}
	defer m.Stop()

	if err != nil {
		if errors.Is(err, ErrNonceSpaceExhausted) {
			m.logger.Errorf("Worker %d exhausted its nonce range", workerID)
		}
		m.err = err
		return
	}
	if res == nil {
		return
	}

	elapsed := m.clock.Since(start)
	if elapsed > m.config.Expiration {
		m.logger.Debugf("Discarding nonce %d (hash %s) found after %v", res.Nonce, res.Hash, elapsed)
		m.err = fmt.Errorf("%w: match found after %v, limit is %v", ErrExpired, elapsed, m.config.Expiration)
		return
	}

	m.result = &types.Result{
		Timestamp: res.Timestamp,
		Nonce:     res.Nonce,
		Hash:      res.Hash,
		Elapsed:   elapsed,
		Worker:    workerID,
	}
}

// timestamp samples the wall clock in Unix seconds
func (m *Miner) timestamp() (uint64, error) {
	now := m.clock.Now()
	sec := now.Unix()
	if sec < 0 {
		return 0, fmt.Errorf("%w: wall clock %s is before the Unix epoch", ErrClockFailure, now.UTC())
	}
	return uint64(sec), nil
}

// Stop stops the mining process
func (m *Miner) Stop() {
	m.once.Do(func() { close(m.done) })
}

// Attempts returns the number of digests computed so far
func (m *Miner) Attempts() uint64 {
	return m.attempts.Load()
}

// periodicLogger logs mining progress at regular intervals
func (m *Miner) periodicLogger(ticker *time.Ticker, done chan struct{}, start time.Time) {
	for {
		select {
		case <-ticker.C:
			attempts := m.attempts.Load()
			elapsed := m.clock.Since(start)

			// Calculate rate safely
			rate := 0.0
			if elapsed.Seconds() > 0 {
				rate = float64(attempts) / elapsed.Seconds()
			}

			m.logger.Infof("Progress: %d attempts, %.2f hashes/sec, %v elapsed", attempts, rate, elapsed)
		case <-done:
			return
		}
	}
}
