package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

// ChecksumMatcher remembers upload fingerprints for the life of the process.
type ChecksumMatcher struct {
	mu   sync.Mutex
	seen map[string]Sighting
	max  int
}

// Sighting records when a fingerprint was first uploaded and by which run.
type Sighting struct {
	RunID string
	At    time.Time
}

// NewChecksumMatcher keeps at most max fingerprints; 0 means unbounded.
func NewChecksumMatcher(max int) *ChecksumMatcher {
	return &ChecksumMatcher{seen: make(map[string]Sighting), max: max}
}

// Sum returns the hex sha256 of r.
func Sum(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// SumFile fingerprints the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Sum(f)
}

// Match records sum and reports the earlier sighting when the same content
// was already uploaded.
func (cm *ChecksumMatcher) Match(sum, runID string, now time.Time) (Sighting, bool, error) {
	if sum == "" {
		return Sighting{}, false, errors.New("checksum is empty")
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if prev, ok := cm.seen[sum]; ok {
		return prev, true, nil
	}
	if cm.max > 0 && len(cm.seen) >= cm.max {
		cm.evictOldest()
	}
	cm.seen[sum] = Sighting{RunID: runID, At: now}
	return Sighting{}, false, nil
}

func (cm *ChecksumMatcher) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, s := range cm.seen {
		if oldestKey == "" || s.At.Before(oldest) {
			oldestKey, oldest = k, s.At
		}
	}
	delete(cm.seen, oldestKey)
}
