package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EnergyMonitor keeps a sliding window of kinetic energy samples and
// reports whether a run has settled.
type EnergyMonitor struct {
	window  int
	samples []float64
	xs      []float64
}

// NewEnergyMonitor creates a monitor over the last window samples.
// Windows smaller than 2 are raised to 2 so a trend can be fitted.
func NewEnergyMonitor(window int) *EnergyMonitor {
	window = max(window, 2)
	xs := make([]float64, window)
	for i := range xs {
		xs[i] = float64(i)
	}
	return &EnergyMonitor{
		window:  window,
		samples: make([]float64, 0, window),
		xs:      xs,
	}
}

// Observe records one sample, evicting the oldest when the window is full.
func (m *EnergyMonitor) Observe(energy float64) {
	if !isFinite(energy) {
		return
	}
	if len(m.samples) == m.window {
		copy(m.samples, m.samples[1:])
		m.samples = m.samples[:m.window-1]
	}
	m.samples = append(m.samples, energy)
}

// Full reports whether the window holds window samples.
func (m *EnergyMonitor) Full() bool { return len(m.samples) == m.window }

// Mean returns the mean energy of the window, or 0 when empty.
func (m *EnergyMonitor) Mean() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	return stat.Mean(m.samples, nil)
}

// Trend returns the least-squares slope of energy per tick over the window.
// Negative values mean the system is cooling.
func (m *EnergyMonitor) Trend() float64 {
	if len(m.samples) < 2 {
		return 0
	}
	_, beta := stat.LinearRegression(m.xs[:len(m.samples)], m.samples, nil, false)
	return beta
}

// Settled reports whether the window is full and every sample in it is
// below threshold.
func (m *EnergyMonitor) Settled(threshold float64) bool {
	return m.Full() && floats.Max(m.samples) < threshold
}

// Reset drops all samples.
func (m *EnergyMonitor) Reset() {
	m.samples = m.samples[:0]
}

// RunUntilSettled steps e until the monitor reports settled or maxTicks
// ticks have run. It returns the number of ticks executed.
func RunUntilSettled(e *Engine, m *EnergyMonitor, threshold float64, maxTicks int) int {
	ran := 0
	for ran < maxTicks && e.State() != StateStopped && e.Len() > 0 {
		e.Step()
		ran++
		m.Observe(e.KineticEnergy())
		if m.Settled(threshold) {
			break
		}
	}
	return ran
}
