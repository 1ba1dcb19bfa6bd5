package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Env holds the process configuration, loaded from APPROVAL_* environment
// variables.
type Env struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=approvals port=5432 sslmode=disable"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	// Overdue stage reminders. Schedule is six-field cron (with seconds).
	ReminderSchedule  string        `envconfig:"REMINDER_SCHEDULE" default:"0 0 * * * *"`
	StageOverdueAfter time.Duration `envconfig:"STAGE_OVERDUE_AFTER" default:"48h"`
}

const namespace = "APPROVAL"

func Load() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}
