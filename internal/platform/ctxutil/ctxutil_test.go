package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestIdentityRoundTrip(t *testing.T) {
	id := &Identity{UserID: uuid.New(), Role: "worker"}
	ctx := WithIdentity(context.Background(), id)
	if got := GetIdentity(ctx); got != id {
		t.Fatalf("expected identity back, got %#v", got)
	}
	if GetIdentity(context.Background()) != nil {
		t.Fatalf("expected nil identity on bare context")
	}
}

func TestTraceDataAndDefault(t *testing.T) {
	var nilCtx context.Context
	if Default(nilCtx) == nil {
		t.Fatalf("Default returned nil")
	}
	if GetTraceData(nilCtx) != nil {
		t.Fatalf("expected nil trace data for nil context")
	}
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	if td := GetTraceData(ctx); td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("unexpected trace data: %#v", td)
	}
}
