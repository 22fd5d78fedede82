package database

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var (
	dbQueriesTotal  metric.Int64Counter
	dbQueryDuration metric.Float64Histogram
)

// InitDatabaseMetrics 初始化数据库指标，OTLP 不可用时可跳过，trace 不受影响
func InitDatabaseMetrics(meter metric.Meter) error {
	var err error

	dbQueriesTotal, err = meter.Int64Counter(
		"db.queries.total",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return err
	}

	dbQueryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	return err
}

// PluginConfig gorm 插件配置
type PluginConfig struct {
	ServiceName   string
	EnableMetrics bool
	// SQL 截断长度，防止超长语句撑爆 span
	MaxSQLLength int
}

// DefaultPluginConfig 默认插件配置
func DefaultPluginConfig() PluginConfig {
	return PluginConfig{
		ServiceName:   "rollcall",
		EnableMetrics: true,
		MaxSQLLength:  500,
	}
}

// OTELPlugin 为每条 gorm 语句生成 client span 并上报查询指标
type OTELPlugin struct {
	tracer trace.Tracer
	cfg    PluginConfig
}

// NewOTELPlugin 创建插件实例
func NewOTELPlugin(cfg PluginConfig) *OTELPlugin {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "rollcall"
	}
	return &OTELPlugin{
		tracer: otel.Tracer(cfg.ServiceName + ".gorm"),
		cfg:    cfg,
	}
}

func (p *OTELPlugin) Name() string {
	return "otel_plugin"
}

// Initialize 在全部 CRUD 回调链前后挂接 span 的开启与收尾
func (p *OTELPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	type chain struct {
		name     string
		register func(before, after func(*gorm.DB)) error
	}

	chains := []chain{
		{"query", func(b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register("otel:before_query", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("otel:after_query", a)
		}},
		{"create", func(b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register("otel:before_create", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("otel:after_create", a)
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register("otel:before_update", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("otel:after_update", a)
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("otel:after_delete", a)
		}},
		{"row", func(b, a func(*gorm.DB)) error {
			if err := cb.Row().Before("gorm:row").Register("otel:before_row", b); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register("otel:after_row", a)
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			if err := cb.Raw().Before("gorm:raw").Register("otel:before_raw", b); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("otel:after_raw", a)
		}},
	}

	for _, c := range chains {
		if err := c.register(p.startSpan, p.endSpan); err != nil {
			return fmt.Errorf("failed to register otel callbacks for %s: %w", c.name, err)
		}
	}
	return nil
}

func (p *OTELPlugin) startSpan(db *gorm.DB) {
	ctx, span := p.tracer.Start(db.Statement.Context, p.operationName(db),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(p.statementAttributes(db)...),
	)

	db.InstanceSet("otel:start_time", time.Now())
	db.InstanceSet("otel:span", span)
	db.Statement.Context = ctx
}

func (p *OTELPlugin) endSpan(db *gorm.DB) {
	spanValue, ok := db.InstanceGet("otel:span")
	if !ok {
		return
	}
	span, ok := spanValue.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	var elapsed float64
	if startValue, ok := db.InstanceGet("otel:start_time"); ok {
		if start, ok := startValue.(time.Time); ok {
			elapsed = time.Since(start).Seconds()
		}
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}

	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "Success")
	case db.Error == gorm.ErrRecordNotFound:
		// 未命中不算错误
		span.SetStatus(codes.Ok, "Record not found")
	default:
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if p.cfg.EnableMetrics {
		p.recordMetrics(db.Statement.Context, db, elapsed)
	}
}

func (p *OTELPlugin) operationName(db *gorm.DB) string {
	sql := strings.ToUpper(strings.TrimSpace(db.Statement.SQL.String()))
	switch {
	case sql == "":
		return "db.unknown"
	case strings.HasPrefix(sql, "SELECT"):
		return "db.select"
	case strings.HasPrefix(sql, "INSERT"):
		return "db.insert"
	case strings.HasPrefix(sql, "UPDATE"):
		return "db.update"
	case strings.HasPrefix(sql, "DELETE"):
		return "db.delete"
	default:
		return "db.query"
	}
}

func (p *OTELPlugin) statementAttributes(db *gorm.DB) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.DBSystemPostgreSQL,
		attribute.String("service.name", p.cfg.ServiceName),
	}

	if table := db.Statement.Table; table != "" {
		attrs = append(attrs, attribute.String("db.table", table))
	}

	sql := db.Statement.SQL.String()
	if len(sql) > p.cfg.MaxSQLLength {
		sql = sql[:p.cfg.MaxSQLLength] + "..."
	}
	attrs = append(attrs, semconv.DBStatement(sanitizeSQL(sql)))

	return attrs
}

var sensitiveAssignment = regexp.MustCompile(`(password|token|secret)\s*=\s*'[^']*'`)

// sanitizeSQL 打码 SQL 里的敏感赋值
func sanitizeSQL(sql string) string {
	return sensitiveAssignment.ReplaceAllString(strings.ToLower(sql), "$1='***'")
}

func (p *OTELPlugin) recordMetrics(ctx context.Context, db *gorm.DB, elapsed float64) {
	if dbQueriesTotal == nil || dbQueryDuration == nil {
		return
	}

	status := "success"
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		status = "error"
	}

	labels := []attribute.KeyValue{
		attribute.String("db.operation", p.operationName(db)),
		attribute.String("db.status", status),
	}

	dbQueriesTotal.Add(ctx, 1, metric.WithAttributes(labels...))
	dbQueryDuration.Record(ctx, elapsed, metric.WithAttributes(labels...))
}
