package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestGetCameraNotFound(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetCamera(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestZoneRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	zone := Zone{
		CameraID: "cam1",
		Points:   [4]Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
	}
	if err := repo.UpdateZone(ctx, zone); err != nil {
		t.Fatalf("UpdateZone: %v", err)
	}

	got, ok, err := repo.GetZone(ctx, "cam1")
	if err != nil {
		t.Fatalf("GetZone: %v", err)
	}
	if !ok {
		t.Fatalf("expected zone to exist")
	}
	if got != zone {
		t.Fatalf("expected %+v, got %+v", zone, got)
	}
}

func TestZoneUpdateOverwrites(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	first := Zone{CameraID: "cam1", Points: [4]Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}}
	second := Zone{CameraID: "cam1", Points: [4]Point{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}, {X: 5, Y: 6}}}

	if err := repo.UpdateZone(ctx, first); err != nil {
		t.Fatalf("UpdateZone first: %v", err)
	}
	if err := repo.UpdateZone(ctx, second); err != nil {
		t.Fatalf("UpdateZone second: %v", err)
	}

	got, ok, err := repo.GetZone(ctx, "cam1")
	if err != nil || !ok {
		t.Fatalf("GetZone: %v ok=%v", err, ok)
	}
	if got != second {
		t.Fatalf("expected overwritten zone %+v, got %+v", second, got)
	}
}

func TestGetZoneMissingReturnsNotOK(t *testing.T) {
	repo := openTestRepo(t)
	_, ok, err := repo.GetZone(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetZone: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a camera with no zone")
	}
}

func TestListNotificationSubscribersEmpty(t *testing.T) {
	repo := openTestRepo(t)
	subs, err := repo.ListNotificationSubscribers(context.Background(), "cam1")
	if err != nil {
		t.Fatalf("ListNotificationSubscribers: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("expected no subscribers, got %v", subs)
	}
}
