package syncrun

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/canopysearch/catsync/core"
)

// CronSpec returns the cron schedule descriptor for a sync interval.
func CronSpec(interval core.SyncInterval) (string, error) {
	switch interval {
	case core.IntervalDaily:
		return "@daily", nil
	case core.IntervalWeekly:
		return "@weekly", nil
	case core.IntervalMonthly:
		return "@monthly", nil
	default:
		return "", fmt.Errorf("%w: %s", core.ErrInvalidInterval, interval)
	}
}

// NextRun computes the next scheduled fire after now for an auto-sync
// config. Returns nil for configs that do not recur.
func NextRun(cfg core.SourceConfig, now time.Time) (*time.Time, error) {
	if !cfg.AutoSync {
		return nil, nil
	}
	spec, err := CronSpec(cfg.SyncInterval)
	if err != nil {
		return nil, err
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule %s: %w", spec, err)
	}
	next := schedule.Next(now)
	return &next, nil
}
