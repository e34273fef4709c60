package services_test

import (
	"context"
	"testing"

	"menucast/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSlug(ctx, "shrimp-scampi")
	ctx = services.WithStage(ctx, "content")
	ctx = services.WithPlatform(ctx, "tiktok")
	ctx = services.WithRequestID(ctx, "req-123")

	if slug, ok := services.SlugFromContext(ctx); !ok || slug != "shrimp-scampi" {
		t.Fatalf("unexpected slug: %v %v", slug, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "content" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if platform, ok := services.PlatformFromContext(ctx); !ok || platform != "tiktok" {
		t.Fatalf("unexpected platform: %v %v", platform, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
