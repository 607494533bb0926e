package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"

	"golang.org/x/crypto/sha3"

	"github.com/aldokuritsu/powminer/pkg/types"
)

const (
	// DigestLen is the sha256 digest size in bytes
	DigestLen = sha256.Size

	// HexLen is the length of a hex-encoded digest
	HexLen = DigestLen * 2

	// FingerprintLen is the number of keccak bytes kept for a run fingerprint
	FingerprintLen = 4
)

// AttemptInput builds data ++ timestamp ++ nonce with no separators.
func AttemptInput(data string, timestamp, nonce uint64) string {
	return string(AppendAttempt(nil, data, timestamp, nonce))
}

// AppendAttempt appends the attempt input to buf and returns the extended buffer.
func AppendAttempt(buf []byte, data string, timestamp, nonce uint64) []byte {
	buf = append(buf, data...)
	buf = strconv.AppendUint(buf, timestamp, 10)
	return strconv.AppendUint(buf, nonce, 10)
}

// NewAttempt builds the attempt for (data, timestamp, nonce)
func NewAttempt(data string, timestamp, nonce uint64) types.Attempt {
	return types.Attempt{
		Timestamp: timestamp,
		Nonce:     nonce,
		Input:     AttemptInput(data, timestamp, nonce),
	}
}

// HashHex returns the lowercase hex sha256 of input
func HashHex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// HashAttempt hashes a single (data, timestamp, nonce) attempt
func HashAttempt(data string, timestamp, nonce uint64) string {
	return HashHex(NewAttempt(data, timestamp, nonce).Input)
}

// Hasher reuses its sha256 state and buffers between attempts.
// Not safe for concurrent use; each worker owns one.
type Hasher struct {
	h        hash.Hash
	inputBuf []byte
	sumBuf   [DigestLen]byte
	hexBuf   [HexLen]byte
}

// NewHasher creates a new hasher
func NewHasher() *Hasher {
	return &Hasher{
		h:        sha256.New(),
		inputBuf: make([]byte, 0, 128),
	}
}

// HashInto hashes the attempt and returns the hex digest as a byte slice
// backed by the hasher. The slice is overwritten by the next call.
func (h *Hasher) HashInto(data string, timestamp, nonce uint64) []byte {
	h.inputBuf = AppendAttempt(h.inputBuf[:0], data, timestamp, nonce)
	h.h.Reset()
	h.h.Write(h.inputBuf)
	sum := h.h.Sum(h.sumBuf[:0])
	hex.Encode(h.hexBuf[:], sum)
	return h.hexBuf[:]
}

// Fingerprint returns a short keccak256 id of a request, used to tag log lines of one run.
func Fingerprint(data, pattern string, difficulty uint64) string {
	k := sha3.NewLegacyKeccak256()
	_, _ = k.Write([]byte(data))
	_, _ = k.Write([]byte{0})
	_, _ = k.Write([]byte(pattern))
	_, _ = k.Write([]byte{0})
	_, _ = k.Write(strconv.AppendUint(nil, difficulty, 10))
	sum := k.Sum(nil)
	return hex.EncodeToString(sum[:FingerprintLen])
}
