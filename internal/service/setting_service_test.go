package service

import (
	"context"
	"testing"
	"time"
)

func TestSettingServiceDefaultsAndOverrides(t *testing.T) {
	gdb := setupServiceTestDB(t)
	ctx := context.Background()

	svc := NewSettingService(gdb, SettingDefaults{CompanionURL: "http://watch.local"})

	settings, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if settings.CalendarAccess != CalendarAccessGranted || settings.CompanionURL != "http://watch.local" {
		t.Fatalf("unexpected defaults %+v", settings)
	}

	if err := svc.SetCalendarAccess(ctx, false); err != nil {
		t.Fatalf("SetCalendarAccess returned error: %v", err)
	}
	granted, err := svc.CalendarAccess(ctx)
	if err != nil {
		t.Fatalf("CalendarAccess returned error: %v", err)
	}
	if granted {
		t.Fatal("expected calendar access to be denied")
	}

	// 再次写入同一个 key 走 upsert
	if err := svc.SetCalendarAccess(ctx, true); err != nil {
		t.Fatalf("SetCalendarAccess returned error: %v", err)
	}
	if granted, _ := svc.CalendarAccess(ctx); !granted {
		t.Fatal("expected calendar access to be granted")
	}

	if err := svc.SetCompanionURL(ctx, " http://phone.local:9000/ "); err != nil {
		t.Fatalf("SetCompanionURL returned error: %v", err)
	}
	syncedAt := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	if err := svc.MarkSynced(ctx, syncedAt); err != nil {
		t.Fatalf("MarkSynced returned error: %v", err)
	}

	settings, err = svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if settings.CompanionURL != "http://phone.local:9000" {
		t.Fatalf("unexpected companion url %q", settings.CompanionURL)
	}
	if settings.LastSyncAt == nil || !settings.LastSyncAt.Equal(syncedAt) {
		t.Fatalf("unexpected last sync %v", settings.LastSyncAt)
	}
}

func TestSettingServiceDeniedByConfig(t *testing.T) {
	svc := NewSettingService(setupServiceTestDB(t), SettingDefaults{CalendarAccess: "denied"})

	granted, err := svc.CalendarAccess(context.Background())
	if err != nil {
		t.Fatalf("CalendarAccess returned error: %v", err)
	}
	if granted {
		t.Fatal("expected denied from config default")
	}
}

func TestParseCalendarAccess(t *testing.T) {
	if granted, err := ParseCalendarAccess("GRANTED"); err != nil || !granted {
		t.Fatalf("expected granted, got %v (%v)", granted, err)
	}
	if granted, err := ParseCalendarAccess("denied"); err != nil || granted {
		t.Fatalf("expected denied, got %v (%v)", granted, err)
	}
	if _, err := ParseCalendarAccess("maybe"); err == nil {
		t.Fatal("expected error for unknown value")
	}
}
