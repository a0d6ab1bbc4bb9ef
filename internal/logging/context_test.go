package logging

import (
	"context"
	"testing"

	"facevault/internal/services"
)

func TestContextFieldsExtractsAnnotations(t *testing.T) {
	ctx := services.WithUsername(context.Background(), "alice")
	ctx = services.WithStep(ctx, "verify_face")

	fields := ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != FieldUsername || fields[0].Value.String() != "alice" {
		t.Fatalf("unexpected username field: %v", fields[0])
	}
	if fields[1].Key != FieldStep || fields[1].Value.String() != "verify_face" {
		t.Fatalf("unexpected step field: %v", fields[1])
	}
}

func TestContextFieldsEmptyWithoutAnnotations(t *testing.T) {
	if fields := ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
}

func TestWithContextReturnsUsableLoggerForNilBase(t *testing.T) {
	ctx := services.WithUsername(context.Background(), "bob")
	logger := WithContext(ctx, nil)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	logger.Info("noop")
}
