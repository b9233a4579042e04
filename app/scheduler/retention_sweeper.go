// Package scheduler provides background jobs: the retention sweep and the
// scheduled-task dispatcher.
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	businessflow "github.com/junwei-lin/smsflow/business_flow"
	"github.com/junwei-lin/smsflow/config"
)

// newJobLogger builds a logger writing to stdout and, when configured, a
// rotated log file.
func newJobLogger(tag string, cfg *config.LoggingConfig) *log.Logger {
	var w io.Writer = os.Stdout
	if cfg != nil && cfg.FilePath != "" && cfg.Output != "stdout" {
		file := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		if cfg.Output == "file" {
			w = file
		} else {
			w = io.MultiWriter(os.Stdout, file)
		}
	}
	return log.New(w, tag, log.LstdFlags|log.LUTC)
}

// RetentionSweeper periodically drops send records that fell out of the
// retention window. The sweep also runs once at startup so a long-stopped
// instance catches up immediately.
type RetentionSweeper struct {
	retention businessflow.RetentionFlow
	interval  time.Duration
	logger    *log.Logger
}

// NewRetentionSweeper creates a new retention sweeper
func NewRetentionSweeper(retention businessflow.RetentionFlow, interval time.Duration, logCfg *config.LoggingConfig) *RetentionSweeper {
	return &RetentionSweeper{
		retention: retention,
		interval:  interval,
		logger:    newJobLogger("[retention-sweeper] ", logCfg),
	}
}

// Start launches the sweep loop and returns a cancel function.
func (s *RetentionSweeper) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		s.logger.Printf("starting, interval=%s", s.interval)
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Println("stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *RetentionSweeper) runOnce(ctx context.Context) {
	removed, err := s.retention.SweepOnce(ctx)
	if err != nil {
		s.logger.Printf("sweep failed: %v", err)
		return
	}
	if removed > 0 {
		s.logger.Printf("sweep removed %d expired records", removed)
	}
}
