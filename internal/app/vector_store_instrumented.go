package app

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

const vectorTracerName = "github.com/yungbote/autocrm-backend/vectorindex"

// instrumentedVectorIndex records one span per index operation.
type instrumentedVectorIndex struct {
	provider string
	inner    vectorindex.Index
	tracer   trace.Tracer
}

func instrumentVectorIndex(provider string, inner vectorindex.Index) vectorindex.Index {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorIndex{
		provider: provider,
		inner:    inner,
		tracer:   otel.Tracer(vectorTracerName),
	}
}

func (s *instrumentedVectorIndex) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	ctx, span := s.start(ctx, "upsert", attribute.Int("vector.count", len(entries)))
	err := s.inner.Upsert(ctx, entries)
	endSpan(span, err)
	return err
}

func (s *instrumentedVectorIndex) Query(ctx context.Context, vector []float32, topK int) ([]vectorindex.Match, error) {
	ctx, span := s.start(ctx, "query", attribute.Int("vector.top_k", topK))
	out, err := s.inner.Query(ctx, vector, topK)
	if err == nil {
		span.SetAttributes(attribute.Int("vector.matches", len(out)))
	}
	endSpan(span, err)
	return out, err
}

func (s *instrumentedVectorIndex) DeleteIDs(ctx context.Context, ids []string) error {
	ctx, span := s.start(ctx, "delete_ids", attribute.Int("vector.count", len(ids)))
	err := s.inner.DeleteIDs(ctx, ids)
	endSpan(span, err)
	return err
}

func (s *instrumentedVectorIndex) DeleteAll(ctx context.Context) error {
	ctx, span := s.start(ctx, "delete_all")
	err := s.inner.DeleteAll(ctx)
	endSpan(span, err)
	return err
}

// ListIDs does not mark ErrListUnsupported as a span error; the syncer falls back on it.
func (s *instrumentedVectorIndex) ListIDs(ctx context.Context) ([]string, error) {
	ctx, span := s.start(ctx, "list_ids")
	out, err := s.inner.ListIDs(ctx)
	if errors.Is(err, vectorindex.ErrListUnsupported) {
		span.SetAttributes(attribute.Bool("vector.list_unsupported", true))
		span.End()
		return out, err
	}
	endSpan(span, err)
	return out, err
}

func (s *instrumentedVectorIndex) Stats(ctx context.Context) (vectorindex.Stats, error) {
	ctx, span := s.start(ctx, "stats")
	out, err := s.inner.Stats(ctx)
	endSpan(span, err)
	return out, err
}

func (s *instrumentedVectorIndex) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("vector.provider", s.provider),
		attribute.String("vector.operation", op),
	)
	return s.tracer.Start(ctx, "vectorindex."+op, trace.WithAttributes(attrs...), trace.WithSpanKind(trace.SpanKindClient))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
