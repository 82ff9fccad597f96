package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(Config{}, "test")
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestStartSpan_NoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()
	if ctx == nil {
		t.Fatal("expected context")
	}
}
