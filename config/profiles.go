package config

import "github.com/robmorgan/cadence/profile"

func initializeMeterProfiles() map[string]profile.Meter {
	out := map[string]profile.Meter{
		profile.MeterCommonTime: {
			Name:         "Common time, 4/4 at 24 ticks per beat",
			BeatsPerBar:  4,
			TicksPerBeat: 24,
		},
		profile.MeterWaltz: {
			Name:         "Waltz, 3/4 at 24 ticks per beat",
			BeatsPerBar:  3,
			TicksPerBeat: 24,
		},
		profile.MeterCutTime: {
			Name:         "Cut time, 2/2 at 48 ticks per beat",
			BeatsPerBar:  2,
			TicksPerBeat: 48,
		},
		profile.MeterCompound: {
			Name: "Compound 6/8 at 12 ticks per eighth",
			// six beats of an eighth each
			BeatsPerBar:  6,
			TicksPerBeat: 12,
		},
		profile.MeterMIDIClock: {
			Name: "MIDI clock resolution, 24 PPQN in 4/4",
			// one tick per incoming clock message
			BeatsPerBar:  4,
			TicksPerBeat: 24,
		},
		profile.MeterTickless: {
			Name: "Exact time, no grid",
		},
	}

	return out
}
