// Package block implements the spatial block prediction model sitting
// between the per-pixel event-generation arena and the ADU arithmetic
// coder: intra/inter D and Δt residual prediction across a fixed 16x16
// pixel neighborhood, plus the reconstruction path the decoder runs to
// stay bit-exact with the encoder's running state.
package block

import "github.com/eric-unc/adder-codec-go/internal/event"

// Size is the block's edge length in pixels.
const Size = 16

// Area is the number of pixels in a block.
const Area = Size * Size

// DEncodeNoEvent marks a block position that produced no event.
const DEncodeNoEvent event.DResidual = event.DEncodeNoEvent

// Events holds one optional reconstructed event per block position, row
// major. A nil entry means the pixel produced no event in this block.
type Events [Area]*event.EventCoordless

// emptyDResiduals returns a block's worth of residuals, all marked "no event".
func emptyDResiduals() [Area]event.DResidual {
	var out [Area]event.DResidual
	for i := range out {
		out[i] = DEncodeNoEvent
	}
	return out
}
