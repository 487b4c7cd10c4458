package processing

import (
	"fmt"
	"math"
)

// Resample low-pass filters samples at outputRate/2 with a single-pole IIR
// filter and keeps every inputRate/outputRate-th filtered sample.
//
// inputRate must be a positive integer multiple of outputRate; anything
// else panics. Filter state starts at the first input sample on every call,
// so consecutive buffers are filtered independently.
func Resample(samples []float32, inputRate, outputRate int) []float32 {
	if outputRate <= 0 || inputRate < outputRate || inputRate%outputRate != 0 {
		panic(fmt.Sprintf("processing: cannot resample %d Hz to %d Hz", inputRate, outputRate))
	}
	if len(samples) == 0 {
		return nil
	}

	factor := inputRate / outputRate
	cutoff := float64(outputRate) / 2
	rc := 1 / (2 * math.Pi * cutoff)
	dt := 1 / float64(inputRate)
	alpha := float32(dt / (rc + dt))

	out := make([]float32, 0, (len(samples)+factor-1)/factor)
	previous := samples[0]

	for i, s := range samples {
		filtered := previous + alpha*(s-previous)
		if i%factor == 0 {
			out = append(out, filtered)
		}
		previous = filtered
	}

	return out
}
