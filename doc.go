// Package mastering implements an offline audio mastering pipeline in pure Go.
//
// A run measures the input, passes it through four stages in fixed order
// (noise suppression, content-aware tone shaping, stereo imaging, transient
// shaping), then applies a normalization gain toward a loudness target.
// The gain is reduced when it would push the input peak past
// [PeakCeilingDB]; in that case the reported output loudness is the lower,
// achieved value and [Results.PeakLimited] is set.
//
// # Quick Start
//
//	res, err := mastering.MasterFile(ctx, "in.wav", "out.wav", mastering.DefaultSettings())
//
// For more control, decode a buffer and use a [Pipeline] or a [Session]:
//
//	buf, _, err := mastering.ReadWAVFile("in.wav")
//	p := mastering.NewPipeline(mastering.WithEstimator(mastering.GatedLoudness()))
//	wet, res, err := p.Run(ctx, buf, settings)
//	out, err := mastering.Mix(buf, wet, 70)
//
// # Sessions
//
// A [Session] keeps the dry buffer and its latest render so mix and export
// queries can be answered without rendering again. Loading a new buffer
// starts a new generation; a render that finishes for an older generation
// is discarded with [ErrStaleRender].
//
// # Errors
//
// Failures fall into the categories [ErrInvalidState],
// [ErrDimensionMismatch], [ErrRenderFailure], [ErrDecodeFailure] and
// [ErrInvalidSettings]. Match them with errors.Is. Render failures also
// carry the failing stage name, reachable with errors.As.
//
// # Output Format
//
// Exports are canonical 44-byte-header RIFF/WAVE files with interleaved
// 16-bit PCM. Samples are clamped to [-1, 1]; negative values scale by
// 32768 and non-negative values by 32767.
//
// # Inference
//
// Learned denoisers and classifiers plug in through [WithDenoiser] and the
// [Classifier] interface. Deterministic spectral fallbacks
// ([SpectralDenoiser], [SpectralClassifier]) are always available, and the
// pipeline never depends on a model being ready.
package mastering
