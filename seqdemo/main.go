package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/robmorgan/cadence/config"
	"github.com/robmorgan/cadence/effect"
	"github.com/robmorgan/cadence/logger"
	"github.com/robmorgan/cadence/rhythm"
	"github.com/robmorgan/cadence/sequencer"
	"github.com/robmorgan/cadence/series"
	"github.com/robmorgan/cadence/timing"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	meter := flag.String("meter", "", "meter profile, overrides the config file")
	tempo := flag.Float64("tempo", 0, "tempo in beats per minute, overrides the config file")
	bars := flag.Int64("bars", 4, "number of bars to play")
	easing := flag.String("easing", "in-out-sine", "easing curve of the filter sweep")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := Run(ctx, *configPath, *meter, *tempo, *bars, *easing); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetProjectLogger().Fatalf("seqdemo failed. err='%v'", err)
	}
}

// Run plays a short demo composition in real time.
func Run(ctx context.Context, configPath, meter string, tempo float64, bars int64, easing string) error {
	log := logger.GetProjectLogger()

	log.Info("Initializing config...")
	cfg := config.GetCadenceConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if meter != "" {
		cfg.Meter = meter
		if err := cfg.ApplyMeter(); err != nil {
			return err
		}
	}
	if tempo > 0 {
		cfg.Tempo = tempo
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	m, err := rhythm.NewMetronomeFromConfig(clock.RealClock{}, cfg)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"beats_per_bar":  cfg.BeatsPerBar,
		"ticks_per_beat": cfg.TicksPerBeat,
		"tempo":          cfg.Tempo,
	}).Info("Initializing sequencer...")
	s, err := sequencer.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	s.OnError(func(err error) {
		log.WithError(err).Warn("event failed")
	})
	s.On("note", func(args ...any) {
		log.WithFields(logrus.Fields{
			"position": timing.Format(s.Position()),
			"voice":    args[0],
			"pitch":    args[1],
		}).Info("note")
	})

	curve, err := effect.Easing(easing)
	if err != nil {
		return err
	}
	if err := compose(s, cfg, bars, curve); err != nil {
		return err
	}

	transport := rhythm.NewTransport(s, m, rhythm.WithStopWhenEmpty(true))

	log.Info("Playing...")
	return transport.Start(ctx)
}

// compose schedules a kick on every beat, a filter sweep over the first half and a
// looping arpeggio, all ending after the given number of bars.
func compose(s *sequencer.Sequencer, cfg config.CadenceConfig, bars int64, curve effect.Curve) error {
	log := logger.GetProjectLogger()
	start := timing.Int(1)
	end := timing.Int(1 + bars)
	beat := timing.R(1, int64(cfg.BeatsPerBar))
	arpeggio := []int{60, 64, 67, 72}

	return s.At(start, func() {
		kick, err := s.Every(beat, sequencer.EveryOptions{Till: end}, func(*sequencer.Control) {
			s.Launch("note", "kick", 36)
		})
		if err != nil {
			panic(err)
		}
		kick.OnStop(func() {
			log.WithField("position", timing.Format(s.Position())).Info("kick finished")
		})

		_, err = s.Move(sequencer.MoveOptions{
			From:     sequencer.Scalar(0),
			To:       sequencer.Scalar(127),
			Duration: timing.R(bars, 2),
			Every:    beat,
			Function: curve,
		}, func(step sequencer.MoveStep, _ *sequencer.Control) {
			log.WithFields(logrus.Fields{
				"position": timing.Format(step.Position),
				"cutoff":   int(step.Values.Scalar()),
			}).Info("filter")
		})
		if err != nil {
			panic(err)
		}

		notes := series.Func(func(i int) (any, bool) {
			return map[string]any{
				"pitch":    arpeggio[i%len(arpeggio)],
				"duration": timing.Quo(beat, timing.Int(2)),
			}, true
		})
		arp, err := s.Play(notes, sequencer.PlayWait, func(value any, _ *sequencer.Control) {
			s.Launch("note", "arp", value.(map[string]any)["pitch"])
		})
		if err != nil {
			panic(err)
		}
		if err := s.At(end, arp.Stop); err != nil {
			panic(err)
		}
	})
}
