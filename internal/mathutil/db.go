package mathutil

import "math"

// Level floors and ceilings shared by the analyzer and the gain solver.
const (
	// LoudnessFloorDB is the lowest loudness the analyzer reports.
	LoudnessFloorDB = -70.0

	// PeakFloorDB is reported for silent or empty buffers instead of -Inf.
	PeakFloorDB = -120.0

	// FullScaleDB is 0 dBFS.
	FullScaleDB = 0.0

	// dbAmplitudeFactor converts log10 amplitude ratios to decibels.
	dbAmplitudeFactor = 20.0

	// dbPowerFactor converts log10 power ratios to decibels.
	dbPowerFactor = 10.0
)

// DBToLinear converts a decibel gain to a linear amplitude factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/dbAmplitudeFactor)
}

// LinearToDB converts a linear amplitude to decibels, returning floor for
// non-positive input or results below floor.
func LinearToDB(linear, floor float64) float64 {
	if linear <= 0 {
		return floor
	}
	db := dbAmplitudeFactor * math.Log10(linear)
	if db < floor {
		return floor
	}
	return db
}

// PowerToDB converts a mean-square power to decibels with a floor.
func PowerToDB(power, floor float64) float64 {
	if power <= 0 {
		return floor
	}
	db := dbPowerFactor * math.Log10(power)
	if db < floor {
		return floor
	}
	return db
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}
