// ABOUTME: Standard MIDI file length probing
// ABOUTME: Integrates tempo changes up to the last event of any track
package ingest

import (
	"errors"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

var errNoLength = errors.New("midi file has no playable length")

type tempoChange struct {
	tick int64
	bpm  float64
}

// MIDILength returns the playing time of a standard MIDI file in seconds
func MIDILength(path string) (float64, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read midi file: %w", err)
	}

	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return 0, fmt.Errorf("unsupported midi time format %v", s.TimeFormat)
	}

	var end int64
	tempos := []tempoChange{{tick: 0, bpm: 120}}
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				tempos = append(tempos, tempoChange{tick: abs, bpm: bpm})
			}
		}
		end = max(end, abs)
	}
	if end == 0 {
		return 0, errNoLength
	}

	return secondsAt(end, float64(ticks), tempos), nil
}

// secondsAt converts an absolute tick to seconds under the given tempo map
func secondsAt(tick int64, ppq float64, tempos []tempoChange) float64 {
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].tick < tempos[j].tick })

	var seconds float64
	for i, tc := range tempos {
		if tc.tick >= tick {
			break
		}
		next := tick
		if i+1 < len(tempos) && tempos[i+1].tick < tick {
			next = tempos[i+1].tick
		}
		seconds += float64(next-tc.tick) * 60 / (tc.bpm * ppq)
	}
	return seconds
}
