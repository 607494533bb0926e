package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aldokuritsu/powminer/internal/config"
	"github.com/aldokuritsu/powminer/pkg/types"
)

// Record is the success report emitted on stdout
type Record struct {
	Data       string  `json:"data"`
	Pattern    string  `json:"pattern"`
	Difficulty uint64  `json:"difficulty"`
	Timestamp  uint64  `json:"timestamp"`
	Nonce      uint64  `json:"nonce"`
	Hash       string  `json:"hash"`
	ElapsedMs  int64   `json:"elapsed_ms"`
	Attempts   uint64  `json:"attempts"`
	HashRate   float64 `json:"hash_rate"`
}

// Reporter writes success records to Out and failures to Err
type Reporter struct {
	Out    io.Writer
	Err    io.Writer
	Format string
}

// NewRecord builds the report for a successful run
func NewRecord(req types.MiningRequest, res *types.Result) Record {
	// Calculate rate safely
	rate := 0.0
	if res.Elapsed.Seconds() > 0 {
		rate = float64(res.Attempts) / res.Elapsed.Seconds()
	}
	return Record{
		Data:       req.Data,
		Pattern:    req.Pattern,
		Difficulty: req.Difficulty,
		Timestamp:  res.Timestamp,
		Nonce:      res.Nonce,
		Hash:       res.Hash,
		ElapsedMs:  res.Elapsed.Milliseconds(),
		Attempts:   res.Attempts,
		HashRate:   rate,
	}
}

// Success renders a mined block
func (r *Reporter) Success(req types.MiningRequest, res *types.Result) error {
	rec := NewRecord(req, res)
	if r.Format == config.FormatJSON {
		enc := json.NewEncoder(r.Out)
		return enc.Encode(rec)
	}

	_, err := fmt.Fprintf(r.Out,
		"Block mined!\nPattern: %s\nDifficulty: %d\nTimestamp: %d\nNonce: %d\nHash: %s\nElapsed: %d ms (%v)\nAttempts: %d\nRate: %.2f hashes/sec\n",
		rec.Pattern, rec.Difficulty, rec.Timestamp, rec.Nonce, rec.Hash,
		rec.ElapsedMs, res.Elapsed.Round(time.Microsecond), rec.Attempts, rec.HashRate)
	return err
}

// Failure renders an error record
func (r *Reporter) Failure(err error) {
	fmt.Fprintf(r.Err, "Error: %v\n", err)
}
