package codec

import "github.com/eric-unc/adder-codec-go/internal/event"

// CodecMetadata is invariant over the life of one stream: every ADU in
// the stream is interpreted against the same plane geometry, timing, and
// sensitivity bounds.
type CodecMetadata struct {
	CodecVersion uint8

	Plane event.PlaneSize

	TicksPerSecond uint32

	// RefInterval is the number of ticks per reference sample period; it
	// sets a block's temporal width and the FramePerfect rounding unit.
	RefInterval event.DeltaT

	// DeltaTMax is the hard upper bound on any event's Δt.
	DeltaTMax event.DeltaT

	SourceCamera event.SourceCamera

	TimeMode event.TimeMode

	// IntegrationMode selects how the pixel model rounds reconstructed
	// times and handles intensity remainders (FramePerfect vs
	// Continuous). Independent of TimeMode: a stream can report
	// AbsoluteT timestamps while still integrating in Continuous mode.
	IntegrationMode event.Mode

	// AduInterval is the number of reference intervals covered by one
	// ADU's temporal window.
	AduInterval uint32
}

// defaultCodecVersion is the version stamped on streams produced by this
// module.
const defaultCodecVersion uint8 = 1

// DefaultMetadata returns metadata for a stream of the given plane size,
// with DeltaTMax set from crf's table row (its DtmMultiplier times
// refInterval) and TicksPerSecond fixed at 30 reference intervals.
func DefaultMetadata(plane event.PlaneSize, refInterval event.DeltaT, aduInterval uint32, crf int) CodecMetadata {
	params := EncoderOptions{Plane: plane, Crf: crf}.Parameters()
	return CodecMetadata{
		CodecVersion:    defaultCodecVersion,
		Plane:           plane,
		TicksPerSecond:  uint32(refInterval) * 30,
		RefInterval:     refInterval,
		DeltaTMax:       event.DeltaT(params.DtmMultiplier * float32(refInterval)),
		SourceCamera:    event.SourceCameraUnknown,
		TimeMode:        event.TimeModeDeltaT,
		IntegrationMode: event.Continuous,
		AduInterval:     aduInterval,
	}
}

// NumIntervals returns how many reference intervals make up one ADU's
// temporal window.
func (m CodecMetadata) NumIntervals() int {
	return int(m.AduInterval)
}
