package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nsm-fleet/nsmd/internal/asyncop"
	"github.com/nsm-fleet/nsmd/internal/device"
	"github.com/nsm-fleet/nsmd/internal/event"
	"github.com/nsm-fleet/nsmd/internal/exchange"
	"github.com/nsm-fleet/nsmd/internal/logger"
	"github.com/nsm-fleet/nsmd/internal/objectmodel"
	"github.com/nsm-fleet/nsmd/internal/scheduler"
	"github.com/nsm-fleet/nsmd/internal/statusapi"
	"github.com/nsm-fleet/nsmd/internal/telemetry"
	"github.com/nsm-fleet/nsmd/internal/transport"
	"github.com/nsm-fleet/nsmd/internal/wiring"
	"github.com/nsm-fleet/nsmd/pkg/config"
	"github.com/nsm-fleet/nsmd/pkg/metrics"
	metricspkg "github.com/nsm-fleet/nsmd/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the nsmd agent",
	Long: `Start the agent: connect to the local MCTP demux, bring up discovered
devices, poll their sensors, and serve the read-only status API.

Examples:
  nsmd start
  nsmd start --config /etc/nsmd/config.yaml`,
	RunE: runStart,
}

// discoveryFIFOCapacity bounds device.Manager's pending-tuple queue; a full
// queue applies backpressure to whatever feeds Submit.
const discoveryFIFOCapacity = 64

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "nsmd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "nsmd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	metrics.InitRegistry(cfg.Metrics.Enabled)

	// Dispatcher is built before Transport (its sink), and before Exchanger
	// (its long-running completer): Transport needs a sink at construction,
	// Exchanger needs a Transport at construction, and Dispatcher needs an
	// Exchanger — a genuine three-way cycle broken by wiring the completer
	// in after Exchanger exists.
	dispatcher := event.New(nil, metricspkg.NewEventMetrics())

	xport := transport.New(transport.Config{
		SocketPath:     cfg.Agent.SocketPath,
		LocalEID:       0,
		AttemptTimeout: cfg.Agent.AttemptTimeout,
		RetryCount:     cfg.Agent.RetryCount,
	}, dispatcher, metricspkg.NewTransportMetrics())

	if err := xport.Start(ctx); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}
	defer func() {
		if err := xport.Close(); err != nil {
			logger.Error("transport close error", logger.Err(err))
		}
	}()

	exchanger := exchange.New(exchange.Config{LongRunningTimeout: cfg.Agent.LongRunningTimeout}, xport)
	dispatcher.SetLongRunningCompleter(exchanger)

	manager := device.New(exchanger, cfg.Agent.InstanceRemap, discoveryFIFOCapacity)

	cache := objectmodel.NewCache()
	pool := asyncop.NewPool("/asyncops", cfg.Agent.AsyncOpPoolCapacity, metricspkg.NewAsyncOpMetrics())
	asyncDispatcher := asyncop.NewDispatcher(pool)

	sched := scheduler.New(scheduler.Config{PollInterval: cfg.Agent.PollInterval}, metricspkg.NewSchedulerMetrics())

	sensorFactory := wiring.NewDeviceSensorFactory(wiring.SensorSet{
		Exchanger:            exchanger,
		LongRunningExchanger: exchanger,
		EventDispatcher:      dispatcher,
		AsyncDispatcher:      asyncDispatcher,
		Cache:                cache,
	})
	manager.SetSensorFactory(func(dev *device.Device) {
		sensorFactory(dev)
		go func() {
			if err := sched.Run(ctx, dev); err != nil && ctx.Err() == nil {
				logger.Error("device scheduler exited", logger.EID(dev.EID), logger.Err(err))
			}
		}()
	})

	managerDone := make(chan error, 1)
	go func() { managerDone <- manager.Run(ctx) }()

	for _, ep := range cfg.Agent.StaticEndpoints {
		id, err := uuid.Parse(ep.UUID)
		if err != nil {
			logger.Error("invalid static endpoint uuid", logger.Err(err))
			continue
		}
		in := device.DiscoveryInput{EID: ep.EID, UUID: id, Medium: ep.Medium, NetworkID: ep.NetworkID, Binding: ep.Binding}
		if err := manager.Submit(ctx, in); err != nil {
			logger.Error("failed to submit static endpoint", logger.EID(ep.EID), logger.Err(err))
		}
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", logger.Err(err))
			}
		}()
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	var statusServer *http.Server
	if cfg.StatusAPI.Enabled {
		statusServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.StatusAPI.Address, cfg.StatusAPI.Port),
			Handler: statusapi.NewRouter(manager, cache, pool),
		}
		go func() {
			if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("status api server error", logger.Err(err))
			}
		}()
		logger.Info("status api listening", "address", cfg.StatusAPI.Address, "port", cfg.StatusAPI.Port)
	}

	logger.Info("nsmd started", "socket", cfg.Agent.SocketPath, "poll_interval", cfg.Agent.PollInterval.String())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	managerExited := false
	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case err := <-managerDone:
		managerExited = true
		if err != nil && ctx.Err() == nil {
			logger.Error("device manager exited", logger.Err(err))
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if statusServer != nil {
		_ = statusServer.Shutdown(shutdownCtx)
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	// The device manager's Run goroutine exits once ctx (cancelled above)
	// is done; wait for it so Submit's FIFO and any in-flight discovery
	// exchange wind down before the process exits, bounded by the same
	// shutdown deadline used for the HTTP servers.
	if !managerExited {
		select {
		case <-managerDone:
		case <-shutdownCtx.Done():
			logger.Warn("device manager did not stop before shutdown timeout")
		}
	}

	logger.Info("nsmd stopped")
	return nil
}
