package mastering

// Loudness targets and limits.
const (
	// DefaultTargetLUFS is the streaming-platform loudness most services normalize to.
	DefaultTargetLUFS = -14.0

	// PeakCeilingDB is the highest projected peak the gain solver allows.
	PeakCeilingDB = -0.1
)

const (
	percentMax            = 100.0
	defaultNoiseReduction = 50.0
)
