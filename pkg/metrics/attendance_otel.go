package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// 考勤域指标集合，未初始化时所有 Record* 调用为空操作

var (
	meter = otel.Meter("rollcall")

	marksTotal              metric.Int64Counter
	markDuration            metric.Float64Histogram
	flagsRaisedTotal        metric.Int64Counter
	sessionsActivatedTotal  metric.Int64Counter
	sessionsClosedTotal     metric.Int64Counter
	sessionsFinalizedTotal  metric.Int64Counter
	sessionsReopenedTotal   metric.Int64Counter
	notificationsSentTotal  metric.Int64Counter
)

// InitMetrics 初始化考勤域指标
func InitMetrics() error {
	var err error

	marksTotal, err = meter.Int64Counter(
		"attendance.marks.total",
		metric.WithDescription("Total number of attendance marks recorded"),
		metric.WithUnit("{mark}"),
	)
	if err != nil {
		return err
	}

	markDuration, err = meter.Float64Histogram(
		"attendance.mark.duration",
		metric.WithDescription("Attendance mark processing duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0),
	)
	if err != nil {
		return err
	}

	flagsRaisedTotal, err = meter.Int64Counter(
		"attendance.flags.total",
		metric.WithDescription("Total number of review flags raised on records"),
		metric.WithUnit("{flag}"),
	)
	if err != nil {
		return err
	}

	sessionsActivatedTotal, err = meter.Int64Counter(
		"attendance.sessions.activated.total",
		metric.WithDescription("Total number of sessions activated"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	sessionsClosedTotal, err = meter.Int64Counter(
		"attendance.sessions.closed.total",
		metric.WithDescription("Total number of sessions closed"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	sessionsFinalizedTotal, err = meter.Int64Counter(
		"attendance.sessions.finalized.total",
		metric.WithDescription("Total number of sessions finalized"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	sessionsReopenedTotal, err = meter.Int64Counter(
		"attendance.sessions.reopened.total",
		metric.WithDescription("Total number of reopen windows granted"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	notificationsSentTotal, err = meter.Int64Counter(
		"attendance.notifications.sent.total",
		metric.WithDescription("Total number of notifications persisted by consumers"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordMark 记录一次打卡结果
func RecordMark(ctx context.Context, mode, status string, duration float64) {
	if marksTotal == nil {
		return
	}

	labels := metric.WithAttributes(
		attribute.String("mark.mode", mode),
		attribute.String("mark.status", status),
	)

	marksTotal.Add(ctx, 1, labels)
	markDuration.Record(ctx, duration, labels)
}

// RecordFlags 记录打卡产生的复核标记数
func RecordFlags(ctx context.Context, count int) {
	if flagsRaisedTotal == nil || count <= 0 {
		return
	}
	flagsRaisedTotal.Add(ctx, int64(count))
}

// RecordSessionActivated 记录场次激活
func RecordSessionActivated(ctx context.Context) {
	if sessionsActivatedTotal == nil {
		return
	}
	sessionsActivatedTotal.Add(ctx, 1)
}

// RecordSessionClosed 记录场次关闭
func RecordSessionClosed(ctx context.Context) {
	if sessionsClosedTotal == nil {
		return
	}
	sessionsClosedTotal.Add(ctx, 1)
}

// RecordSessionFinalized 记录场次结算
func RecordSessionFinalized(ctx context.Context) {
	if sessionsFinalizedTotal == nil {
		return
	}
	sessionsFinalizedTotal.Add(ctx, 1)
}

// RecordSessionReopened 记录补卡窗口开启
func RecordSessionReopened(ctx context.Context, strategy string) {
	if sessionsReopenedTotal == nil {
		return
	}
	sessionsReopenedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reopen.strategy", strategy),
	))
}

// RecordNotificationSent 记录通知落库
func RecordNotificationSent(ctx context.Context, category string) {
	if notificationsSentTotal == nil {
		return
	}
	notificationsSentTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("notification.category", category),
	))
}
