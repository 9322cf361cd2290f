package usecase

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "workforce-portal/usecase"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	transitionCounter metric.Int64Counter
	cascadeOutcomes   metric.Int64Counter
	rankedCandidates  metric.Int64Histogram
)

func init() {
	var err error
	transitionCounter, err = meter.Int64Counter("application.transitions",
		metric.WithDescription("Applied application status transitions"))
	if err != nil {
		otel.Handle(err)
	}
	cascadeOutcomes, err = meter.Int64Counter("cascade.outcomes",
		metric.WithDescription("Per-application outcomes of job closure cascades"))
	if err != nil {
		otel.Handle(err)
	}
	rankedCandidates, err = meter.Int64Histogram("ranking.pool_size",
		metric.WithDescription("Candidates per ranking run"))
	if err != nil {
		otel.Handle(err)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
