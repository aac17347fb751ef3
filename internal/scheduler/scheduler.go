// Package scheduler implements C7, the per-device polling loop: one
// goroutine per device runs static-once, priority-every-pass,
// round-robin-one-per-pass sensor updates, sleeping out the remainder of
// each pass's budget (spec.md §4.7).
package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/logger"
	metricspkg "github.com/nsm-fleet/nsmd/pkg/metrics/prometheus"

	"github.com/nsm-fleet/nsmd/internal/timerx"
)

// offlinePollInterval is how often a paused loop checks whether its device
// has come back online (spec.md §4.7 step 6 "pause the loop; resume on
// online").
const offlinePollInterval = 250 * time.Millisecond

// Config bundles the scheduler's one tunable: the pass budget every device
// shares (spec.md §4.7 step 2 "now + pollingInterval").
type Config struct {
	PollInterval time.Duration
}

// Scheduler runs one polling loop per device.
type Scheduler struct {
	cfg     Config
	metrics *metricspkg.SchedulerMetrics
}

// New builds a Scheduler. metrics may be nil (it tolerates a nil receiver).
func New(cfg Config, metrics *metricspkg.SchedulerMetrics) *Scheduler {
	return &Scheduler{cfg: cfg, metrics: metrics}
}

// Run drives dev's polling loop until ctx is cancelled. Intended to be
// called as `go sched.Run(ctx, dev)`, one goroutine per discovered device.
func (s *Scheduler) Run(ctx context.Context, dev *device.Device) error {
	eidLabel := strconv.Itoa(int(dev.EID))
	staticDone := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !dev.Online() {
			if err := s.waitForOnlineOrDone(ctx, dev); err != nil {
				return err
			}
			continue
		}

		start := time.Now()
		deadline := start.Add(s.cfg.PollInterval)

		if !staticDone {
			s.runAll(ctx, dev, dev.StaticSensors)
			staticDone = true
		}

		s.runAll(ctx, dev, dev.PrioritySensors)

		if rr := dev.NextRoundRobinSensor(); rr != nil {
			s.runOne(ctx, dev, rr)
		}

		if s.metrics != nil {
			s.metrics.ObservePass(eidLabel, float64(time.Since(start).Milliseconds()))
			s.metrics.SetCursor(eidLabel, dev.RoundRobinCursor())
		}

		if remaining := time.Until(deadline); remaining > 0 {
			if err := s.sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context, dev *device.Device, sensors []device.Sensor) {
	for _, sn := range sensors {
		s.runOne(ctx, dev, sn)
	}
}

func (s *Scheduler) runOne(ctx context.Context, dev *device.Device, sn device.Sensor) {
	if err := sn.Update(ctx, dev); err != nil {
		logger.WarnCtx(ctx, "scheduler sensor update failed",
			logger.SensorName(sn.Name()), logger.EID(dev.EID), logger.Err(err))
	}
}

// waitForOnlineOrDone blocks until dev.Online() is true or ctx is done,
// implementing "pause the loop; resume on online" by short-interval
// polling (Device exposes no online-transition channel).
func (s *Scheduler) waitForOnlineOrDone(ctx context.Context, dev *device.Device) error {
	for {
		if dev.Online() {
			return nil
		}
		if err := s.sleep(ctx, offlinePollInterval); err != nil {
			return err
		}
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	timer := timerx.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C():
		timer.MarkExpired()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
