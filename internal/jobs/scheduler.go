package jobs

import (
	"time"

	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/serviceiface"

	"github.com/robfig/cron/v3"
)

type CronService struct {
	config map[string]interface{}
	sweep  *cron.Cron
}

func NewCronService(cfg map[string]interface{}) serviceiface.Service {
	return &CronService{config: cfg}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	sweepConfig := NewDefaultSweepConfig()

	// services.yaml overrides
	if s.config != nil {
		if schedule, ok := s.config["sweep_schedule"].(string); ok && schedule != "" {
			sweepConfig.Schedule = schedule
		}
		if dir, ok := s.config["upload_dir"].(string); ok && dir != "" {
			sweepConfig.Dir = dir
		}
		if age, ok := s.config["scratch_max_age"].(string); ok && age != "" {
			if d, err := time.ParseDuration(age); err == nil {
				sweepConfig.MaxAge = d
			}
		}
	}
	if env := config.LoadEnv(); env.UploadDir != config.DefaultUploadDir {
		sweepConfig.Dir = env.UploadDir
	}

	c, err := RunScratchSweeper(sweepConfig)
	if err != nil {
		return err
	}
	s.sweep = c
	logger.Audit("Cron service started, scratch sweeper scheduled %q on %s", sweepConfig.Schedule, sweepConfig.Dir)
	return nil
}

func (s *CronService) Stop() error {
	if s.sweep == nil {
		return nil
	}
	ctx := s.sweep.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
	}
	logger.Audit("Cron service stopped")
	return nil
}
