// Package noise provides the channel noise value swept by the simulation
// and conversions between its representations.
package noise

import "math"

// Sigma is a gaussian noise value together with the signal-to-noise
// ratios it was derived from. Values are immutable per sweep iteration.
type Sigma struct {
	Sigma float64
	EbN0  float64
	EsN0  float64
}

// EbN0ToEsN0 converts the information SNR to the symbol SNR for the
// provided code rate and bits per symbol.
func EbN0ToEsN0(ebn0, rate float64, bps int) float64 {
	return ebn0 + 10*math.Log10(rate*float64(bps))
}

// EsN0ToSigma converts the symbol SNR to the gaussian noise standard
// deviation for the provided upsample factor.
func EsN0ToSigma(esn0 float64, upsample int) float64 {
	return math.Sqrt(float64(upsample) / (2 * math.Pow(10, esn0/10)))
}

// New derives a Sigma from the information SNR.
func New(ebn0, rate float64, bps, upsample int) Sigma {
	esn0 := EbN0ToEsN0(ebn0, rate, bps)
	return Sigma{
		Sigma: EsN0ToSigma(esn0, upsample),
		EbN0:  ebn0,
		EsN0:  esn0,
	}
}
