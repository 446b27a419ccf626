package metrics

import (
	"math"
	"sync"
	"testing"
)

func TestDurationStats(t *testing.T) {
	ResetDurations()

	if s := GetDurationStats("instagram_poster"); s != nil {
		t.Fatalf("expected nil stats before any run, got %+v", s)
	}

	for i := 1; i <= 100; i++ {
		ProcessStarted("instagram_poster")
		ProcessExited("instagram_poster", 0, float64(i))
	}

	s := GetDurationStats("instagram_poster")
	if s == nil {
		t.Fatal("expected stats")
	}
	if s.Runs != 100 {
		t.Errorf("Runs = %d, want 100", s.Runs)
	}
	if math.Abs(s.P50-50) > 3 {
		t.Errorf("P50 = %v, want about 50", s.P50)
	}
	if s.P99 < s.P90 || s.P90 < s.P50 {
		t.Errorf("quantiles out of order: %+v", s)
	}

	if names := DurationScripts(); len(names) != 1 || names[0] != "instagram_poster" {
		t.Errorf("DurationScripts() = %v", names)
	}
}

func TestDurationStatsConcurrent(t *testing.T) {
	ResetDurations()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				observeDuration("video_editor", float64(i))
				_ = GetDurationStats("video_editor")
			}
		}()
	}
	wg.Wait()

	if s := GetDurationStats("video_editor"); s == nil || s.Runs != 200 {
		t.Errorf("expected 200 runs, got %+v", s)
	}
}
