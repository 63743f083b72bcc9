// Package noise classifies audio submissions by estimating the sustained
// background-noise floor of a recording.
//
// The floor is the low percentile of a short-time RMS energy envelope: brief
// loud transients (a single emphasized word) barely move a low percentile,
// while constant hum raises the whole envelope and with it the floor.
package noise

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// DefaultThreshold is the highest noise floor still accepted.
	DefaultThreshold = 0.01
	// DefaultPercentile of the energy envelope taken as the noise floor.
	DefaultPercentile = 10.0

	frameLength = 2048
	hopLength   = 512
)

// ErrDecode marks attachment bytes that could not be decoded as audio.
// It is distinct from a noisy rejection: a rejection carries a measured
// floor, a decode error carries none.
var ErrDecode = errors.New("audio decode failed")

// Result is the outcome of evaluating one recording.
type Result struct {
	NoiseFloor float64
	Accepted   bool
}

// Evaluator holds the classification parameters.
type Evaluator struct {
	Threshold  float64
	Percentile float64
}

// New returns an Evaluator with the default threshold and percentile.
func New() Evaluator {
	return Evaluator{Threshold: DefaultThreshold, Percentile: DefaultPercentile}
}

// Evaluate decodes data as a WAV container and classifies it. The suffix is
// a filename hint used only for error detail; the container is sniffed from
// the bytes themselves.
func (e Evaluator) Evaluate(data []byte, suffix string) (Result, error) {
	samples, err := decodeWAV(data)
	if err != nil {
		return Result{}, fmt.Errorf("attachment %q: %w", suffix, err)
	}
	return e.EvaluateSamples(samples), nil
}

// EvaluateSamples classifies an already-decoded mono sample sequence in
// [-1, 1]. Empty or silent input yields a zero floor, which is accepted.
func (e Evaluator) EvaluateSamples(samples []float64) Result {
	return e.Classify(rmsEnvelope(samples, frameLength, hopLength))
}

// Classify derives the noise floor from an energy envelope and compares it
// against the threshold. The threshold itself is accepted.
func (e Evaluator) Classify(envelope []float64) Result {
	floor := percentile(envelope, e.Percentile)
	return Result{NoiseFloor: floor, Accepted: floor <= e.Threshold}
}

// decodeWAV decodes PCM WAV bytes into mono samples at native sample rate.
// Multi-channel input is averaged down to mono.
func decodeWAV(data []byte) ([]float64, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrDecode)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing format chunk", ErrDecode)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 64 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bitDepth)
	}
	return monoSamples(buf, bitDepth), nil
}

// monoSamples normalizes the PCM buffer to [-1, 1] floats, averaging
// channels down to mono.
func monoSamples(buf *audio.IntBuffer, bitDepth int) []float64 {
	scale := float64(uint64(1) << (bitDepth - 1))
	ch := buf.Format.NumChannels
	out := make([]float64, len(buf.Data)/ch)
	for i := range out {
		var acc float64
		for c := 0; c < ch; c++ {
			acc += float64(buf.Data[i*ch+c])
		}
		out[i] = acc / float64(ch) / scale
	}
	return out
}

// rmsEnvelope computes root-mean-square energy over overlapping frames.
// The final partial frame is included so short clips still produce a value.
func rmsEnvelope(samples []float64, frameLen, hop int) []float64 {
	if len(samples) == 0 {
		return nil
	}
	var env []float64
	for start := 0; start < len(samples); start += hop {
		end := start + frameLen
		if end > len(samples) {
			end = len(samples)
		}
		var sum float64
		for _, s := range samples[start:end] {
			sum += s * s
		}
		env = append(env, math.Sqrt(sum/float64(end-start)))
	}
	return env
}

// percentile returns the p-th percentile of values with linear interpolation
// between the two nearest ranks. Empty input yields 0.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
