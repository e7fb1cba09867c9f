// Package serial issues bill serial numbers of the form YY followed by a
// zero-padded sequence.
package serial

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/store"
)

// maxAttempts bounds Issue when every candidate is taken.
const maxAttempts = 10000

// Generator is scoped to a single import run and is not safe for concurrent use.
type Generator struct {
	bills  store.BillStore
	prefix string
	seq    int64
	used   map[string]bool
}

// Prefix returns the two-digit year prefix for now.
func Prefix(now time.Time) string {
	return fmt.Sprintf("%02d", now.Year()%100)
}

// NewGenerator seeds the sequence from the highest stored serial for the
// current year.
func NewGenerator(ctx context.Context, bills store.BillStore, now time.Time) (*Generator, error) {
	g := &Generator{bills: bills, prefix: Prefix(now), used: map[string]bool{}}
	last, err := bills.MaxSerial(ctx, g.prefix)
	if err != nil {
		return nil, fmt.Errorf("read last serial: %w", err)
	}
	if last != "" {
		if n, err := strconv.ParseInt(strings.TrimPrefix(last, g.prefix), 10, 64); err == nil {
			g.seq = n
		}
	}
	return g, nil
}

// Next advances the sequence and formats the candidate.
func (g *Generator) Next() string {
	g.seq++
	return fmt.Sprintf("%s%0*d", g.prefix, config.SerialSequenceWidth, g.seq)
}

// MarkUsed records a serial taken by this run.
func (g *Generator) MarkUsed(srNo string) {
	if srNo != "" {
		g.used[srNo] = true
	}
}

// Used reports whether srNo was issued or marked in this run.
func (g *Generator) Used(srNo string) bool { return g.used[srNo] }

// Issue returns the next serial that neither this run nor the store has seen.
func (g *Generator) Issue(ctx context.Context) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := g.Next()
		if g.used[candidate] {
			continue
		}
		_, err := g.bills.FindBySerial(ctx, candidate)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("check serial %s: %w", candidate, err)
		}
		g.used[candidate] = true
		return candidate, nil
	}
	return "", errors.New("failed to generate serial number")
}
