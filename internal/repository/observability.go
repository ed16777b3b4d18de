package repository

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/actuallystonmai/user-directory/internal/domain"
)

const instrumentationName = "github.com/actuallystonmai/user-directory/internal/repository"

type observer struct {
	system   string
	tracer   trace.Tracer
	queries  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// newObserver binds to the global providers; without an installed SDK they are no-ops.
func newObserver(d Dialect) *observer {
	meter := otel.Meter(instrumentationName)

	queries, _ := meter.Int64Counter("users.db.queries",
		metric.WithDescription("Statements executed against the users table"),
		metric.WithUnit("{query}"),
	)
	failures, _ := meter.Int64Counter("users.db.errors",
		metric.WithDescription("Statements that returned an error"),
		metric.WithUnit("{error}"),
	)
	duration, _ := meter.Float64Histogram("users.db.duration",
		metric.WithDescription("Statement duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)

	return &observer{
		system:   d.System,
		tracer:   otel.Tracer(instrumentationName),
		queries:  queries,
		failures: failures,
		duration: duration,
	}
}

// start opens a span for op. The returned func must be deferred with a pointer
// to the caller's named error.
func (o *observer) start(ctx context.Context, op string) (context.Context, func(*error)) {
	begin := time.Now()
	ctx, span := o.tracer.Start(ctx, "users."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", o.system),
			attribute.String("db.operation", op),
		),
	)

	return ctx, func(errp *error) {
		attrs := metric.WithAttributes(
			attribute.String("db.system", o.system),
			attribute.String("db.operation", op),
		)
		o.queries.Add(ctx, 1, attrs)
		o.duration.Record(ctx, float64(time.Since(begin).Microseconds())/1000, attrs)

		// A missing row is an answer, not a failure.
		if err := *errp; err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.failures.Add(ctx, 1, attrs)
		}
		span.End()
	}
}
