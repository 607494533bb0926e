package types

import "time"

// MiningRequest is the immutable input of a single mining run
type MiningRequest struct {
	Data       string
	Pattern    string
	Difficulty uint64
}

// Attempt is one hashed candidate. Timestamp is sampled per attempt.
type Attempt struct {
	Timestamp uint64
	Nonce     uint64
	Input     string
}

// Result represents a mining result
type Result struct {
	Timestamp uint64
	Nonce     uint64
	Hash      string
	Elapsed   time.Duration
	Attempts  uint64
	Worker    int
}

// WorkerConfig contains configuration for individual workers
type WorkerConfig struct {
	Data   string
	Prefix string // pattern repeated difficulty times

	// Nonce range: Start, Start+Stride, Start+2*Stride, ...
	Start  uint64
	Stride uint64
}

// WorkerResult represents a match found by a single worker
type WorkerResult struct {
	Timestamp uint64
	Nonce     uint64
	Hash      string
	Attempts  uint64
}
