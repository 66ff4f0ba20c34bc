package services_test

import (
	"context"
	"testing"

	"keyframer/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "select")
	ctx = services.WithMethod(ctx, "color")
	ctx = services.WithShot(ctx, 3)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "select" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if method, ok := services.MethodFromContext(ctx); !ok || method != "color" {
		t.Fatalf("unexpected method: %v %v", method, ok)
	}
	if shot, ok := services.ShotFromContext(ctx); !ok || shot != 3 {
		t.Fatalf("unexpected shot: %v %v", shot, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ShotFromContext(ctx); ok {
		t.Fatal("expected no shot value")
	}
}
