// Package sweep runs the periodic overlay sweeper. Replies whose chat
// or triggering message was deleted stay invisible but still occupy
// memory; the sweeper reclaims them on a cron schedule.
package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"chatledger/pkg/chat"
	"chatledger/pkg/config"
	"chatledger/pkg/logger"
	"chatledger/pkg/telemetry"
)

type Sweeper struct {
	cfg     config.SweepConfig
	dir     *chat.Directory
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	mutex   sync.Mutex
}

// Start launches the sweep schedule loop. When sweeping is disabled the
// returned cancel is a no-op.
func Start(ctx context.Context, cfg config.SweepConfig, dir *chat.Directory) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("sweep_disabled")
		return func() {}, nil
	}

	ctx2, cancel := context.WithCancel(ctx)
	sw := &Sweeper{cfg: cfg, dir: dir, ctx: ctx2, cancel: cancel}

	logger.Info("sweep_enabled", "cron", cfg.Cron)
	go sw.scheduleLoop()
	return cancel, nil
}

func (sw *Sweeper) scheduleLoop() {
	for {
		now := time.Now()
		next, err := gronx.NextTickAfter(sw.cfg.Cron, now, false)
		if err != nil {
			logger.Error("sweep_nexttick_failed", "cron", sw.cfg.Cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-sw.ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			sw.runJob()
			select {
			case <-time.After(time.Second):
			case <-sw.ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			sw.runJob()
		case <-sw.ctx.Done():
			return
		}
	}
}

func (sw *Sweeper) runJob() {
	sw.mutex.Lock()
	if sw.running {
		sw.mutex.Unlock()
		return
	}
	sw.running = true
	sw.mutex.Unlock()

	defer func() {
		sw.mutex.Lock()
		sw.running = false
		sw.mutex.Unlock()
	}()

	removed, err := sw.dir.SweepOrphans()
	if err != nil {
		logger.Error("sweep_run_error", "error", err, "removed", removed)
		return
	}
	if removed > 0 {
		telemetry.OverlaySwept.Add(float64(removed))
	}
	logger.Info("sweep_run_done", "removed", removed)
}
