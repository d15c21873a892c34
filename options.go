package codec

import "github.com/eric-unc/adder-codec-go/internal/event"

// EncoderOptions configures a stream before the first event is ingested.
type EncoderOptions struct {
	// Plane is the spatial and channel extent of the stream.
	Plane event.PlaneSize

	// Crf selects a row of the CRF table (0..=9). Lower values favor
	// quality, higher values favor smaller output.
	Crf int
}

// DefaultCRF is the CRF level to pass when no other quality level is
// wanted. An EncoderOptions that leaves Crf unset holds 0, and Parameters
// then returns row 0, not the DefaultCRF row.
const DefaultCRF = 3

// CRFParameters is one row of the constant-rate-factor table: the
// sensitivity thresholds and feature radius a transcoder front-end uses
// to drive the pixel model, indexed by Crf.
type CRFParameters struct {
	CThreshBaseline   float32
	CThreshMax        float32
	DtmMultiplier     float32
	CIncreaseVelocity float32
	FeatureRadius     float32
}

// crfTable mirrors the reference transcoder's constant-rate-factor
// lookup: baseline/max sensitivity thresholds, the Δt_max multiplier (in
// units of ref_interval), how fast the sensitivity threshold grows per
// ref_interval of stillness, and the feature-detection radius as a
// fraction of the shorter plane dimension.
var crfTable = [10]CRFParameters{
	{0.0, 0.0, 20.0, 10.0, 1e-9},
	{0.0, 3.0, 25.0, 9.0, 1.0 / 12.0},
	{1.0, 5.0, 30.0, 8.0, 1.0 / 15.0},
	{3.0, 7.0, 35.0, 7.0, 1.0 / 18.0},
	{5.0, 9.0, 40.0, 6.0, 1.0 / 20.0},
	{7.0, 10.0, 45.0, 5.0, 1.0 / 23.0},
	{9.0, 15.0, 50.0, 4.0, 1.0 / 26.0},
	{11.0, 20.0, 55.0, 3.0, 1.0 / 30.0},
	{13.0, 30.0, 60.0, 2.0, 1.0 / 35.0},
	{15.0, 40.0, 65.0, 1.0, 1.0 / 40.0},
}

// Parameters returns the CRF table row for o.Crf, clamping out-of-range
// values into [0, 9] rather than panicking, since this is a user-supplied
// configuration value rather than an internal invariant.
func (o EncoderOptions) Parameters() CRFParameters {
	crf := o.Crf
	if crf < 0 {
		crf = 0
	}
	if crf > 9 {
		crf = 9
	}
	return crfTable[crf]
}
