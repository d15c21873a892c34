// Package event defines the coordinate, timing, and sensitivity types shared
// by the pixel event-generation model, the block prediction model, and the
// ADU compression hierarchy.
package event

import "math"

// D is the log2-scale sensitivity of an event. A D value implies an
// integration threshold of 2^D intensity-ticks.
type D = uint8

// DeltaT is a tick count elapsed between an event and its predecessor at the
// same pixel.
type DeltaT = uint32

// AbsoluteT is an absolute tick timestamp.
type AbsoluteT = uint32

// DeltaTResidual is a signed, 64-bit delta-t prediction residual, wide enough
// to hold the difference of two DeltaT values before quantization.
type DeltaTResidual = int64

// DResidual is a signed D prediction residual.
type DResidual = int16

// Sensitivity bounds and sentinel D values.
const (
	// DMax is the largest representable sensitivity value.
	DMax D = 127

	// DZeroIntegration marks a forced event fired for a pixel that
	// accumulated elapsed time with zero intensity integration.
	DZeroIntegration D = 254

	// DEmpty marks a node transitioning to a lower D without a proper
	// integration event (see Arena.SetDForContinuous in the pixel package).
	DEmpty D = 255
)

// DEncodeNoEvent is a DResidual sentinel, distinct from any valid residual
// in [-255, 255], used to mark "this pixel produced no event in this block".
const DEncodeNoEvent DResidual = math.MinInt16

// Mode selects how a pixel's integration remainder and a block's
// reconstructed timestamps are rounded relative to ref_interval boundaries.
type Mode uint8

const (
	// FramePerfect rounds reconstructed times up to the next ref_interval
	// multiple and drops any intensity remainder left over from a firing.
	FramePerfect Mode = iota
	// Continuous carries the intensity/time remainder from a firing into
	// the next node rather than discarding it.
	Continuous
)

// String returns a human-readable integration mode name.
func (m Mode) String() string {
	switch m {
	case FramePerfect:
		return "FramePerfect"
	case Continuous:
		return "Continuous"
	default:
		return "Unknown"
	}
}

// TimeMode selects how a fired event reports its timing.
type TimeMode uint8

const (
	// TimeModeDeltaT reports the elapsed time since the pixel's last firing.
	TimeModeDeltaT TimeMode = iota
	// TimeModeAbsoluteT reports an absolute tick timestamp.
	TimeModeAbsoluteT
	// TimeModeMixed is a passthrough equivalent to TimeModeAbsoluteT. The
	// original source does not give it distinct core behavior; this module
	// preserves that rather than inventing a new interpretation.
	TimeModeMixed
)

// String returns a human-readable time mode name.
func (t TimeMode) String() string {
	switch t {
	case TimeModeDeltaT:
		return "DeltaT"
	case TimeModeAbsoluteT:
		return "AbsoluteT"
	case TimeModeMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// Coord is a pixel address: spatial (x, y) plus an optional color channel.
type Coord struct {
	X uint16
	Y uint16
	// C is the color channel index, or nil for a single-channel plane.
	C *uint8
}

// Event is a spatially addressed, asynchronously timed intensity-change
// event: (x, y, c, t, d).
type Event struct {
	Coord Coord
	// T is the absolute tick timestamp at which this event fired.
	T AbsoluteT
	D D
}

// EventCoordless is the coordinate-free content of an Event, the form kept
// in per-pixel and per-block memory.
type EventCoordless struct {
	D D
	// DeltaT holds either an elapsed-time or reconstructed-absolute-time
	// value depending on the caller's bookkeeping; callers that need an
	// unambiguous absolute time use AbsoluteT directly instead.
	DeltaT DeltaT
}

// PlaneSize describes the spatial and channel extent of a stream.
type PlaneSize struct {
	Width    uint16
	Height   uint16
	Channels uint8
}

// Area returns the number of pixels in one channel plane.
func (p PlaneSize) Area() int {
	return int(p.Width) * int(p.Height)
}

// SourceCamera tags the originating capture device or synthetic source.
type SourceCamera uint8

const (
	SourceCameraUnknown SourceCamera = iota
	SourceCameraFramedU8
	SourceCameraFramedU16
	SourceCameraFramedF32
	SourceCameraFramedF64
	SourceCameraDavis346
	SourceCameraDvs128
)

// DShift returns 2^d as a float64, wide enough to represent the full
// sensitivity range without overflowing an integer type.
func DShift(d D) float64 {
	return math.Ldexp(1, int(d))
}

// DFromIntensity returns min(floor(log2(intensity)), DMax), or 0 when
// intensity <= 0.
func DFromIntensity(intensity float64) D {
	if intensity <= 0 {
		return 0
	}
	_, exp := math.Frexp(intensity)
	d := exp - 1
	if d < 0 {
		d = 0
	}
	if d > int(DMax) {
		d = int(DMax)
	}
	return D(d)
}
