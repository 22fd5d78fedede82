package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"RollCall/config"
	"RollCall/internal/schedule"
	"RollCall/pkg/logger"
	"RollCall/pkg/metrics"
	pkgmq "RollCall/pkg/mq"
	"RollCall/pkg/otel"
	"RollCall/pkg/snowflake"
	"RollCall/storage"
)

func main() {

	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	otelShutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
		ServiceName:  config.Cfg.ServiceName + "-scheduler",
		Environment:  config.Cfg.Environment,
		OTLPEndpoint: config.Cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Logger.Warn("Failed to initialize OpenTelemetry, telemetry disabled", zap.Error(err))
	} else {
		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
			}
		}()
		if err := metrics.InitMetrics(); err != nil {
			logger.Logger.Warn("Failed to initialize attendance metrics", zap.Error(err))
		}
		if err := pkgmq.InitMQMetrics(otelapi.Meter("rabbitmq")); err != nil {
			logger.Logger.Warn("Failed to initialize mq metrics", zap.Error(err))
		}
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	// 考虑与 worker 和 server 作区分
	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", config.Cfg.ServiceName+"-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	go runActivatorLoop(ctx)
	go runCloserLoop(ctx)
	go runFinalizerLoop(ctx)

	<-ctx.Done()

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

// runActivatorLoop 周期性扫描当天应激活的场次并播种缺勤记录
func runActivatorLoop(ctx context.Context) {
	s := schedule.GetScheduler()

	ticker := time.NewTicker(time.Duration(config.Cfg.ActivatorInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			if err := s.ActivateDueSessions(runCtx); err != nil {
				logger.Logger.Error("Session activator run failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// runCloserLoop 周期性关闭已过下课时间的场次，重开窗口到期的一并收口
func runCloserLoop(ctx context.Context) {
	s := schedule.GetScheduler()

	ticker := time.NewTicker(time.Duration(config.Cfg.CloserInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			if err := s.CloseExpiredSessions(runCtx); err != nil {
				logger.Logger.Error("Session closer run failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// runFinalizerLoop 周期性执行结算补偿：锁定缺勤、重算汇总、通知课代表
func runFinalizerLoop(ctx context.Context) {
	s := schedule.GetScheduler()

	ticker := time.NewTicker(time.Duration(config.Cfg.FinalizerInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			if err := s.FinalizeEndedSessions(runCtx); err != nil {
				logger.Logger.Error("Session finalizer run failed", zap.Error(err))
			}
			cancel()
		}
	}
}
