package engine

// Noise suppression coefficient ranges. Each field is base + span*amount.
const (
	noiseCutoffBase       = 40.0
	noiseCutoffSpan       = 110.0
	noiseRatioBase        = 1.5
	noiseRatioSpan        = 4.5
	noiseAttackSec        = 0.005
	noiseReleaseSec       = 0.080
	noiseThresholdBase    = -60.0
	noiseThresholdSpan    = 20.0
	noiseRangeBase        = 6.0
	noiseRangeSpan        = 18.0
	noiseEstimateBase     = 1.0
	noiseEstimateSpan     = 17.0
	preserveCutoffBase    = 30.0
	preserveCutoffSpan    = 60.0
	preserveRatioBase     = 1.2
	preserveRatioSpan     = 2.3
	preserveAttackSec     = 0.015
	preserveReleaseSec    = 0.200
	preserveThresholdBase = -65.0
	preserveThresholdSpan = 15.0
	preserveRangeBase     = 3.0
	preserveRangeSpan     = 9.0
	preserveEstimateBase  = 0.5
	preserveEstimateSpan  = 9.5
)

// Tone preservation scales every tone gain term.
const (
	tonePreserveFactor = 0.3
	toneFullFactor     = 1.0

	// toneKneeDB is the compressor knee width used by the tone stage.
	toneKneeDB = 6.0
)

// Stereo imaging.
const (
	// bassMonoHz is the side-channel high-pass corner; below it the image collapses to mono.
	bassMonoHz = 120.0

	widthMusic        = 1.1
	widthPodcast      = 0.8
	widthVocal        = 0.9
	widthInstrumental = 1.15
)

// Transient shaping.
const (
	// preserveTempoThresholdDB raises the compressor threshold when tempo is preserved.
	preserveTempoThresholdDB = 6.0

	// preserveTempoScale scales ratio excess and enhancer gain when tempo is preserved.
	preserveTempoScale = 0.5

	// preserveTempoTimeScale slows attack and release when tempo is preserved.
	preserveTempoTimeScale = 1.5

	// swingReleaseScale lengthens release when swing is preserved.
	swingReleaseScale = 1.25

	// transientFastAttackSec and transientFastRelease drive the fast envelope
	// the transient detector compares against the slow one.
	transientFastAttackSec = 0.0005
	transientFastRelease   = 0.010

	// transientRangeDB is the fast/slow difference that earns the full enhancer gain.
	transientRangeDB = 6.0

	rhythmKneeDB = 4.0
)
