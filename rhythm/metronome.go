package rhythm

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/robmorgan/cadence/config"
	"k8s.io/utils/clock"
)

// ErrNoTickGrid is returned when a real-time driver is configured for a tickless
// sequencer.
var ErrNoTickGrid = errors.New("a real-time metronome needs a tick grid")

// Metronome maps a tempo onto wall-clock time.
// Originally based on https://github.com/Deep-Symmetry/electro/blob/main/src/main/java/org/deepsymmetry/electro/Metronome.java#L449
type Metronome struct {
	mu           sync.Mutex
	clock        clock.PassiveClock
	startTime    time.Time
	tempo        float64
	beatsPerBar  int
	ticksPerBeat int
}

// NewMetronome creates a metronome whose timeline starts now.
func NewMetronome(cl clock.PassiveClock, tempo float64, beatsPerBar, ticksPerBeat int) (*Metronome, error) {
	if tempo <= 0 {
		return nil, fmt.Errorf("tempo must be positive, got %v", tempo)
	}
	if beatsPerBar <= 0 || ticksPerBeat <= 0 {
		return nil, ErrNoTickGrid
	}
	return &Metronome{
		clock:        cl,
		startTime:    cl.Now(),
		tempo:        tempo,
		beatsPerBar:  beatsPerBar,
		ticksPerBeat: ticksPerBeat,
	}, nil
}

// NewMetronomeFromConfig takes the tempo and grid of cfg.
func NewMetronomeFromConfig(cl clock.PassiveClock, cfg config.CadenceConfig) (*Metronome, error) {
	if cfg.Tickless() {
		return nil, ErrNoTickGrid
	}
	return NewMetronome(cl, cfg.Tempo, cfg.BeatsPerBar, cfg.TicksPerBeat)
}

func (m *Metronome) Tempo() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

func (m *Metronome) BeatsPerBar() int  { return m.beatsPerBar }
func (m *Metronome) TicksPerBeat() int { return m.ticksPerBeat }

// SetTempo sets a new tempo. The start time is adjusted so that the current beat and
// phase are unaffected by the tempo change.
func (m *Metronome) SetTempo(bpm float64) error {
	if bpm <= 0 {
		return fmt.Errorf("tempo must be positive, got %v", bpm)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	instant := m.clock.Now()
	interval := beatInterval(m.tempo)
	beat := markerNumber(instant, m.startTime, interval)
	phase := markerPhase(instant, m.startTime, interval)
	newInterval := beatInterval(bpm)
	m.startTime = instant.Add(-time.Duration(math.Round(float64(newInterval) * (phase + float64(beat) - 1))))
	m.tempo = bpm
	return nil
}

// Restart moves the timeline origin to now.
func (m *Metronome) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = m.clock.Now()
}

// BeatInterval returns how long a beat lasts.
func (m *Metronome) BeatInterval() time.Duration {
	return beatInterval(m.Tempo())
}

// TickInterval returns how long a sequencer tick lasts.
func (m *Metronome) TickInterval() time.Duration {
	return m.BeatInterval() / time.Duration(m.ticksPerBeat)
}

func (m *Metronome) BarInterval() time.Duration {
	return m.BeatInterval() * time.Duration(m.beatsPerBar)
}

// Snapshot captures the metronome's timeline at the current instant.
func (m *Metronome) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	instant := m.clock.Now()
	interval := beatInterval(m.tempo)
	return Snapshot{
		Instant:     instant,
		Tempo:       m.tempo,
		BeatsPerBar: m.beatsPerBar,
		Beat:        markerNumber(instant, m.startTime, interval),
		BeatPhase:   markerPhase(instant, m.startTime, interval),
	}
}

func beatInterval(tempo float64) time.Duration {
	return time.Duration(float64(time.Minute) / tempo)
}

// markerNumber calculates the 1-based marker number
func markerNumber(instant, start time.Time, interval time.Duration) int64 {
	return int64(math.Floor(float64(instant.Sub(start))/float64(interval))) + 1
}

// markerPhase calculates the phase of a marker
func markerPhase(instant, start time.Time, interval time.Duration) float64 {
	ratio := float64(instant.Sub(start)) / float64(interval)
	return ratio - math.Floor(ratio)
}
