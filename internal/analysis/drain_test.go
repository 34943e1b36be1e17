package analysis

import (
	"testing"
	"time"

	"github.com/cauldronwatch/backend/internal/models"
)

func TestDetectDrainsSpansConsecutiveDrops(t *testing.T) {
	readings := series("v1", 10*time.Minute, 100, 90, 80, 95)
	events := DetectDrains("v1", readings)
	if len(events) != 1 {
		t.Fatalf("expected 1 drain, got %d", len(events))
	}
	ev := events[0]
	if ev.LevelBefore != 100 || ev.LevelAfter != 80 {
		t.Fatalf("unexpected levels: %+v", ev)
	}
	if !ev.StartTime.Equal(t0) || !ev.EndTime.Equal(t0.Add(20*time.Minute)) {
		t.Fatalf("unexpected bounds: %s - %s", ev.StartTime, ev.EndTime)
	}
	if ev.DrainMinutes != 20 {
		t.Fatalf("expected 20 drain minutes, got %f", ev.DrainMinutes)
	}

	rate := EstimateFillRate(readings)
	if !almostEqual(rate, 1.5) {
		t.Fatalf("expected fill rate 1.5, got %f", rate)
	}
	ev = Reconcile(ev, rate)
	if !almostEqual(ev.TrueVolume, 20+rate*20) {
		t.Fatalf("expected true volume %f, got %f", 20+rate*20, ev.TrueVolume)
	}
}

func TestDetectDrains(t *testing.T) {
	tests := []struct {
		name   string
		levels []float64
		want   [][2]float64
	}{
		{name: "no drops", levels: []float64{10, 20, 20, 30}, want: nil},
		{name: "single step", levels: []float64{10, 20, 5, 15}, want: [][2]float64{{20, 5}}},
		{name: "flat step ends drain", levels: []float64{100, 90, 90, 80}, want: [][2]float64{{100, 90}, {90, 80}}},
		{name: "drain at end of series", levels: []float64{10, 50, 40, 30}, want: [][2]float64{{50, 30}}},
		{name: "two separate drains", levels: []float64{50, 20, 30, 60, 10}, want: [][2]float64{{50, 20}, {60, 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := DetectDrains("v1", series("v1", time.Minute, tt.levels...))
			if events == nil {
				t.Fatalf("expected empty slice, got nil")
			}
			if len(events) != len(tt.want) {
				t.Fatalf("expected %d drains, got %d: %+v", len(tt.want), len(events), events)
			}
			for i, w := range tt.want {
				if events[i].LevelBefore != w[0] || events[i].LevelAfter != w[1] {
					t.Fatalf("drain %d: expected %v, got %+v", i, w, events[i])
				}
				if i > 0 && events[i].StartTime.Before(events[i-1].EndTime) {
					t.Fatalf("drains overlap: %+v", events)
				}
			}
		})
	}
}

func TestDetectDrainsCoincidentTimestampsUsePreviousGap(t *testing.T) {
	readings := []models.LevelReading{
		{VesselID: "v1", Timestamp: t0, Level: 50},
		{VesselID: "v1", Timestamp: t0.Add(10 * time.Minute), Level: 60},
		{VesselID: "v1", Timestamp: t0.Add(10 * time.Minute), Level: 40},
	}
	events := DetectDrains("v1", readings)
	if len(events) != 1 {
		t.Fatalf("expected 1 drain, got %d", len(events))
	}
	if events[0].DrainMinutes != 10 {
		t.Fatalf("expected gap to previous reading (10), got %f", events[0].DrainMinutes)
	}

	head := []models.LevelReading{
		{VesselID: "v1", Timestamp: t0, Level: 60},
		{VesselID: "v1", Timestamp: t0, Level: 40},
	}
	events = DetectDrains("v1", head)
	if len(events) != 1 || events[0].DrainMinutes != 0 {
		t.Fatalf("expected zero-duration drain, got %+v", events)
	}
	if got := Reconcile(events[0], 5).TrueVolume; got != 20 {
		t.Fatalf("expected raw drop 20, got %f", got)
	}
}

func TestDetectDrainsSortsInput(t *testing.T) {
	readings := series("v1", time.Minute, 100, 90, 80, 95)
	shuffled := []models.LevelReading{readings[3], readings[1], readings[0], readings[2]}
	events := DetectDrains("v1", shuffled)
	if len(events) != 1 || events[0].LevelBefore != 100 || events[0].LevelAfter != 80 {
		t.Fatalf("unexpected drains for unsorted input: %+v", events)
	}
}
