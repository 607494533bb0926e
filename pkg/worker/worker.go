package worker

import (
	"bytes"
	"errors"
	"math"
	"sync/atomic"

	"github.com/aldokuritsu/powminer/internal/crypto"
	"github.com/aldokuritsu/powminer/pkg/types"
)

// How many attempts pass between stop checks and counter flushes. Power of 2.
const checkInterval = 1 << 10

// ErrNonceSpaceExhausted is returned when the next nonce would overflow uint64
var ErrNonceSpaceExhausted = errors.New("nonce space exhausted")

// TimestampFunc returns the current wall-clock time in Unix seconds
type TimestampFunc func() (uint64, error)

// Worker searches one strided nonce range for a matching digest
type Worker struct {
	config    *types.WorkerConfig
	attempts  *atomic.Uint64
	timestamp TimestampFunc
	prefix    []byte
	hasher    *crypto.Hasher
}

// NewWorker creates a new worker instance. attempts is shared between workers
// and may be nil.
func NewWorker(config *types.WorkerConfig, attempts *atomic.Uint64, timestamp TimestampFunc) *Worker {
	if config.Stride == 0 {
		config.Stride = 1
	}
	if attempts == nil {
		attempts = new(atomic.Uint64)
	}
	return &Worker{
		config:    config,
		attempts:  attempts,
		timestamp: timestamp,
		prefix:    []byte(config.Prefix),
		hasher:    crypto.NewHasher(),
	}
}

// Search runs until a match is found, an error occurs or done is closed.
// It returns (nil, nil) when stopped.
func (w *Worker) Search(done <-chan struct{}) (*types.WorkerResult, error) {
	nonce := w.config.Start
	var local, total uint64

	flush := func() {
		w.attempts.Add(local)
		total += local
		local = 0
	}

	for {
		if local&(checkInterval-1) == 0 {
			flush()
			select {
			case <-done:
				return nil, nil
			default:
			}
		}

		ts, err := w.timestamp()
		if err != nil {
			flush()
			return nil, err
		}

		sum := w.hasher.HashInto(w.config.Data, ts, nonce)
		local++

		if w.matches(sum) {
			flush()
			return &types.WorkerResult{
				Timestamp: ts,
				Nonce:     nonce,
				Hash:      string(sum),
				Attempts:  total,
			}, nil
		}

		if nonce > math.MaxUint64-w.config.Stride {
			flush()
			return nil, ErrNonceSpaceExhausted
		}
		nonce += w.config.Stride
	}
}

// matches reports whether the hex digest starts with the target prefix
func (w *Worker) matches(sum []byte) bool {
	return bytes.HasPrefix(sum, w.prefix)
}
