package jobs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/logger"

	"github.com/robfig/cron/v3"
)

// SweepConfig controls removal of abandoned upload scratch files.
type SweepConfig struct {
	Schedule string
	Dir      string
	MaxAge   time.Duration
	TimeZone string
}

func NewDefaultSweepConfig() *SweepConfig {
	return &SweepConfig{
		Schedule: config.DefaultScratchSweep,
		Dir:      config.DefaultUploadDir,
		MaxAge:   config.ScratchMaxAge,
		TimeZone: config.DefaultTimeZone,
	}
}

// SweepScratch deletes upload scratch files in dir older than maxAge and
// returns how many were removed. A missing dir is not an error.
func SweepScratch(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read scratch dir: %w", err)
	}
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), config.UploadFilePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// RunScratchSweeper schedules SweepScratch and starts the scheduler.
func RunScratchSweeper(cfg *SweepConfig) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultScratchSweep
	}
	if cfg.Dir == "" {
		cfg.Dir = config.DefaultUploadDir
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = config.ScratchMaxAge
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		n, err := SweepScratch(cfg.Dir, cfg.MaxAge, time.Now())
		if err != nil {
			logger.LogError(logger.L(), "jobs", "SweepScratch", "scratch sweep failed", cfg.Dir, err)
		}
		if n > 0 {
			logger.Audit("Scratch sweeper removed %d stale upload(s) from %s", n, cfg.Dir)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule scratch sweeper: %w", err)
	}

	c.Start()
	return c, nil
}
