package app

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yungbote/autocrm-backend/internal/platform/vectorindex"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return sr
}

func TestInstrumentVectorIndexPassThrough(t *testing.T) {
	sr := recordSpans(t)
	ctx := context.Background()
	idx := instrumentVectorIndex("memory", vectorindex.NewMemory())

	if err := idx.Upsert(ctx, []vectorindex.Entry{{ID: "a", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	matches, err := idx.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "a" {
		t.Fatalf("Query: unexpected matches %+v", matches)
	}
	if _, err := idx.ListIDs(ctx); err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if err := idx.DeleteIDs(ctx, []string{"a"}); err != nil {
		t.Fatalf("DeleteIDs: %v", err)
	}
	st, err := idx.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalRecordCount != 0 {
		t.Fatalf("Stats: want empty index, got %d", st.TotalRecordCount)
	}

	want := []string{"vectorindex.upsert", "vectorindex.query", "vectorindex.list_ids", "vectorindex.delete_ids", "vectorindex.stats"}
	spans := sr.Ended()
	if len(spans) != len(want) {
		t.Fatalf("spans: want %d got %d", len(want), len(spans))
	}
	for i, name := range want {
		if spans[i].Name() != name {
			t.Fatalf("span %d: want %q got %q", i, name, spans[i].Name())
		}
	}
}

func TestInstrumentVectorIndexRecordsErrors(t *testing.T) {
	sr := recordSpans(t)
	want := errors.New("delete failed")
	idx := instrumentVectorIndex("qdrant", &failingIndex{err: want})

	if err := idx.DeleteIDs(context.Background(), []string{"a"}); !errors.Is(err, want) {
		t.Fatalf("DeleteIDs: want %v got %v", want, err)
	}
	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans: want 1 got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("span status: want error got %v", spans[0].Status().Code)
	}
}

func TestInstrumentVectorIndexListUnsupportedIsNotAnError(t *testing.T) {
	sr := recordSpans(t)
	idx := instrumentVectorIndex("pinecone", &failingIndex{err: vectorindex.ErrListUnsupported})

	if _, err := idx.ListIDs(context.Background()); !errors.Is(err, vectorindex.ErrListUnsupported) {
		t.Fatalf("ListIDs: want ErrListUnsupported got %v", err)
	}
	spans := sr.Ended()
	if len(spans) != 1 || spans[0].Status().Code == codes.Error {
		t.Fatalf("ListIDs span should end without error status")
	}
}

func TestInstrumentVectorIndexNil(t *testing.T) {
	if instrumentVectorIndex("memory", nil) != nil {
		t.Fatalf("nil inner should stay nil")
	}
}

type failingIndex struct {
	err error
}

func (f *failingIndex) Upsert(context.Context, []vectorindex.Entry) error { return f.err }
func (f *failingIndex) Query(context.Context, []float32, int) ([]vectorindex.Match, error) {
	return nil, f.err
}
func (f *failingIndex) DeleteIDs(context.Context, []string) error { return f.err }
func (f *failingIndex) DeleteAll(context.Context) error           { return f.err }
func (f *failingIndex) ListIDs(context.Context) ([]string, error) { return nil, f.err }
func (f *failingIndex) Stats(context.Context) (vectorindex.Stats, error) {
	return vectorindex.Stats{}, f.err
}
