package rhythm

import (
	"sync"

	"github.com/robmorgan/cadence/logger"
	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

// PulsesPerQuarter is the resolution of MIDI beat clock.
const PulsesPerQuarter = 24

// MIDIClock follows an external MIDI beat clock, turning 24 pulses per beat into
// ticksPerBeat sequencer ticks. Ticking only happens between a Start (or Continue) and a
// Stop message.
type MIDIClock struct {
	mu           sync.Mutex
	ticker       Ticker
	ticksPerBeat int64
	log          *logrus.Entry

	running bool
	acc     int64
	pulses  int64
}

// NewMIDIClock creates a clock driver for a sequencer with ticksPerBeat ticks per beat.
func NewMIDIClock(ticker Ticker, ticksPerBeat int, log *logrus.Entry) (*MIDIClock, error) {
	if ticksPerBeat <= 0 {
		return nil, ErrNoTickGrid
	}
	if log == nil {
		log = logger.GetProjectLogger()
	}
	return &MIDIClock{ticker: ticker, ticksPerBeat: int64(ticksPerBeat), log: log}, nil
}

// Running reports whether clock pulses are currently turned into ticks.
func (c *MIDIClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Pulses returns the number of clock pulses counted since the last Start.
func (c *MIDIClock) Pulses() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulses
}

// Receive handles one MIDI message. Its signature matches the listener expected by
// midi.ListenTo. Messages other than realtime clock messages are ignored.
func (c *MIDIClock) Receive(msg midi.Message, timestampms int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case msg.Is(midi.TimingClockMsg):
		if !c.running {
			return
		}
		c.pulses++
		// each pulse is ticksPerBeat/24 ticks
		c.acc += c.ticksPerBeat
		for c.acc >= PulsesPerQuarter {
			c.acc -= PulsesPerQuarter
			c.ticker.Tick()
		}
	case msg.Is(midi.StartMsg):
		// primed so that the first pulse ticks onto the downbeat
		c.acc, c.pulses = PulsesPerQuarter-c.ticksPerBeat, 0
		c.running = true
		c.log.WithField("timestamp_ms", timestampms).Info("midi clock started")
	case msg.Is(midi.ContinueMsg):
		c.running = true
		c.log.WithField("timestamp_ms", timestampms).Info("midi clock continued")
	case msg.Is(midi.StopMsg):
		c.running = false
		c.log.WithFields(logrus.Fields{
			"timestamp_ms": timestampms,
			"pulses":       c.pulses,
		}).Info("midi clock stopped")
	}
}
