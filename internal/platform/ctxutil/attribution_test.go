package ctxutil

import (
	"context"
	"testing"
)

func TestGetAttributionDefaultsToUnknown(t *testing.T) {
	got := GetAttribution(context.Background())
	if got.Client != UnknownActor || got.User != UnknownActor {
		t.Fatalf("default attribution: want=UNKNOWN/UNKNOWN got=%s/%s", got.Client, got.User)
	}
}

func TestWithAttributionRoundTrip(t *testing.T) {
	ctx := WithAttribution(context.Background(), NewAttribution(" parking-app ", ""))
	got := GetAttribution(ctx)
	if got.Client != "parking-app" {
		t.Fatalf("client: want=parking-app got=%q", got.Client)
	}
	if got.User != UnknownActor {
		t.Fatalf("user: want=%s got=%q", UnknownActor, got.User)
	}
}
