package syncd

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/caravan/internal/inventory"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := inventory.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestWanted(t *testing.T) {
	tests := []struct {
		name   string
		filter []string
		want   bool
	}{
		{"github", nil, true},
		{"github", []string{"github"}, true},
		{"github", []string{"backup"}, false},
		{"backup", []string{"github", "backup"}, true},
	}
	for _, tt := range tests {
		if got := wanted(tt.name, tt.filter); got != tt.want {
			t.Errorf("wanted(%q, %v) = %v, want %v", tt.name, tt.filter, got, tt.want)
		}
	}
}

func TestNextDuration(t *testing.T) {
	d, err := nextDuration("*/5 * * * *")
	if err != nil {
		t.Fatalf("nextDuration: %v", err)
	}
	if d < 0 || d > 5*time.Minute {
		t.Errorf("duration = %v, want within the next five minutes", d)
	}
}

func TestNextDuration_Invalid(t *testing.T) {
	if _, err := nextDuration("not a cron line"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRunOnce_EmptyInventory(t *testing.T) {
	sum, err := RunOnce(context.Background(), Opts{DB: testDB(t)})
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sum.Pushed != 0 || sum.Failed != 0 {
		t.Errorf("summary = %+v, want zero activity", sum)
	}
}

func TestRun_InvalidSchedule(t *testing.T) {
	err := Run(context.Background(), Opts{DB: testDB(t), Schedule: "bogus"})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, Opts{DB: testDB(t), Schedule: "* * * * *"})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSummaryString(t *testing.T) {
	sum := Summary{Pushed: 3, Failed: 1}
	want := "pushed 3 sibling(s), 1 failure(s)"
	if sum.String() != want {
		t.Errorf("String() = %q, want %q", sum.String(), want)
	}
}
