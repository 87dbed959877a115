package sim

import (
	"math"
	"testing"
)

func TestEnergyMonitorTrend(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"empty", nil, 0},
		{"single", []float64{4}, 0},
		{"falling", []float64{10, 8, 6, 4}, -2},
		{"flat", []float64{3, 3, 3}, 0},
		{"rising", []float64{1, 2, 3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewEnergyMonitor(8)
			for _, s := range tt.samples {
				m.Observe(s)
			}
			if got := m.Trend(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Trend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnergyMonitorWindow(t *testing.T) {
	m := NewEnergyMonitor(3)
	for _, s := range []float64{100, 1, 2, 3} {
		m.Observe(s)
	}
	if !m.Full() {
		t.Fatal("window should be full")
	}
	if got := m.Mean(); got != 2 {
		t.Errorf("Mean() = %v, want 2 (oldest sample evicted)", got)
	}

	m.Observe(math.NaN())
	if got := m.Mean(); got != 2 {
		t.Errorf("NaN sample changed mean to %v", got)
	}

	m.Reset()
	if m.Full() || m.Mean() != 0 {
		t.Error("Reset() should drop all samples")
	}
}

func TestEnergyMonitorSettled(t *testing.T) {
	m := NewEnergyMonitor(2)
	m.Observe(0.5)
	if m.Settled(1) {
		t.Error("half-full window should not be settled")
	}
	m.Observe(0.2)
	if !m.Settled(1) {
		t.Error("window below threshold should be settled")
	}
	m.Observe(5)
	if m.Settled(1) {
		t.Error("spike should unsettle the window")
	}
}

func TestRunUntilSettled(t *testing.T) {
	e := New(sampleModel(), DefaultParams(), 11)
	ran := RunUntilSettled(e, NewEnergyMonitor(20), 0.01, 5000)

	if ran == 0 || ran == 5000 {
		t.Errorf("ran %d ticks, want settled before the cap", ran)
	}
	if e.KineticEnergy() >= 0.01 {
		t.Errorf("energy = %v, want below threshold", e.KineticEnergy())
	}
}
