// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion and PCM length helpers
package audio

import (
	"testing"
	"time"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"24bit positive", 1000000, 3906},
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestScaleTo24(t *testing.T) {
	tests := []struct {
		name     string
		sample   int32
		bits     int
		expected int32
	}{
		{"16 bit", 1, 16, 256},
		{"24 bit", 12345, 24, 12345},
		{"8 bit", -1, 8, -65536},
		{"32 bit", 1 << 16, 32, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScaleTo24(tt.sample, tt.bits); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestSampleFromFloat(t *testing.T) {
	if got := SampleFromFloat(1.5); got != Max24Bit {
		t.Errorf("expected clip to %d, got %d", Max24Bit, got)
	}
	if got := SampleFromFloat(-2); got != -Max24Bit {
		t.Errorf("expected clip to %d, got %d", -Max24Bit, got)
	}
	if got := SampleFromFloat(0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestSampleToFloat(t *testing.T) {
	if got := SampleToFloat(Max24Bit); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := SampleToFloat(0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := SampleToFloat(-Max24Bit); got != -1 {
		t.Errorf("expected -1, got %v", got)
	}
}

func TestPCMLength(t *testing.T) {
	pcm := &PCM{
		Format:  Format{SampleRate: 1000, Channels: 2},
		Samples: make([]int32, 3000),
	}
	if pcm.Frames() != 1500 {
		t.Errorf("expected 1500 frames, got %d", pcm.Frames())
	}
	if pcm.Seconds() != 1.5 {
		t.Errorf("expected 1.5s, got %v", pcm.Seconds())
	}
	if pcm.Duration() != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", pcm.Duration())
	}

	empty := &PCM{}
	if empty.Seconds() != 0 {
		t.Errorf("expected 0 for empty PCM, got %v", empty.Seconds())
	}
}
