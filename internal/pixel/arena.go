// Package pixel implements the per-pixel ADΔER event-generation model
// (PixelArena in the spec): a small state machine that integrates incoming
// intensity samples and emits (D, Δt) events once a pixel's sensitivity
// threshold is crossed.
package pixel

import (
	"math"

	"github.com/eric-unc/adder-codec-go/internal/event"
)

// maxNodes is the node arena's initial size. A pixel usually needs no more
// than a handful of branch nodes between firings, so allocating them up
// front keeps the hot integration path allocation-free; a longer cascade
// of branch nodes grows the arena past this size.
const maxNodes = 6

// bestEvent is the event a node fired the moment its integration threshold
// was crossed, recorded with fractional tick precision.
type bestEvent struct {
	valid  bool
	d      event.D
	deltaT float64
}

// node holds one branch of the pixel's integration state: its current
// sensitivity, accumulated intensity and elapsed time since it started
// integrating, and (if it has already fired once this round) its pending
// best event.
type node struct {
	d           event.D
	integration float64
	deltaT      float64
	best        bestEvent
}

func newNode(startIntensity float64) node {
	d := event.DFromIntensity(startIntensity)
	if d > event.DMax {
		panic("pixel: start D exceeds DMax")
	}
	return node{d: d}
}

// Arena is the per-pixel event-generation state machine.
type Arena struct {
	Coord    event.Coord
	timeMode event.TimeMode

	lastFiredT float64
	length     int
	nodes      []node

	BaseVal      uint8
	NeedToPopTop bool
}

// NewArena creates a pixel arena seeded with an initial intensity sample.
func NewArena(startIntensity float64, coord event.Coord) *Arena {
	a := &Arena{
		Coord:  coord,
		length: 1,
		nodes:  make([]node, maxNodes),
	}
	a.nodes[0] = newNode(startIntensity)
	return a
}

// SetTimeMode overrides the arena's time-reporting mode.
func (a *Arena) SetTimeMode(mode event.TimeMode) {
	a.timeMode = mode
}

// deltaTToAbsoluteT converts a fired node's elapsed delta-t into the
// reported event, applying AbsoluteT/Mixed bookkeeping and FramePerfect
// rounding when requested.
func (a *Arena) deltaTToAbsoluteT(d event.D, deltaT float64, mode event.Mode, refTime event.DeltaT) event.Event {
	if a.timeMode == event.TimeModeAbsoluteT || a.timeMode == event.TimeModeMixed {
		deltaT += a.lastFiredT
		a.lastFiredT = deltaT
		if mode == event.FramePerfect {
			asInt := event.DeltaT(a.lastFiredT)
			if asInt%refTime == 0 {
				a.lastFiredT = float64(asInt)
			} else {
				a.lastFiredT = float64(((asInt / refTime) + 1) * refTime)
			}
		}
	}
	return event.Event{
		Coord: a.Coord,
		D:     d,
		T:     event.AbsoluteT(deltaT),
	}
}

// getZeroEvent fires a forced event with d = DZeroIntegration for a node
// that accumulated elapsed time without any intensity integration.
func (a *Arena) getZeroEvent(idx int, nextIntensity *float64, mode event.Mode, refTime event.DeltaT) event.Event {
	n := &a.nodes[idx]
	deltaT := n.deltaT
	n.deltaT = 0
	if nextIntensity != nil {
		n.d = event.DFromIntensity(*nextIntensity)
	}
	return a.deltaTToAbsoluteT(event.DZeroIntegration, deltaT, mode, refTime)
}

// PopTopEvent pops just the head node's event. Callers should invoke this
// only when NeedToPopTop is set for the head node specifically (D reached
// DMax or dtm was hit).
func (a *Arena) PopTopEvent(nextIntensity float64, mode event.Mode, refTime event.DeltaT) event.Event {
	a.NeedToPopTop = false
	root := &a.nodes[0]
	if !root.best.valid {
		if root.integration == 0 && root.deltaT > 0 {
			return a.getZeroEvent(0, &nextIntensity, mode, refTime)
		}
		// The new node might not have the right D set yet; this can
		// happen under frame-perfect integration when approaching dtm.
		root.best = bestEvent{
			valid:  true,
			d:      event.D(math.Log2(root.integration)),
			deltaT: root.deltaT,
		}
		a.nodes[1] = newNode(nextIntensity)
		a.length = 2
		return a.PopTopEvent(nextIntensity, mode, refTime)
	}

	ev := root.best
	if a.length <= 1 {
		panic("pixel: PopTopEvent requires more than one node")
	}
	for i := 0; i < a.length-1; i++ {
		a.nodes[i] = a.nodes[i+1]
	}
	a.length--

	return a.deltaTToAbsoluteT(ev.d, ev.deltaT, mode, refTime)
}

// PopBestEvents appends every node's pending best event to out, then
// compacts the arena back down to a single head node (the arena's last
// node becomes the new head).
func (a *Arena) PopBestEvents(out []event.Event, mode event.Mode, refTime event.DeltaT) []event.Event {
	for idx := 0; idx < a.length; idx++ {
		n := &a.nodes[idx]
		if !n.best.valid {
			if n.deltaT > 0 && n.integration == 0 {
				out = append(out, a.getZeroEvent(idx, nil, mode, refTime))
			}
			continue
		}
		out = append(out, a.deltaTToAbsoluteT(n.best.d, n.best.deltaT, mode, refTime))
	}

	a.nodes[0] = a.nodes[a.length-1]
	a.length = 1
	a.NeedToPopTop = false
	return out
}

// SetDForContinuous updates the head node's D ahead of a framed sample
// arriving with a lower implied D than the node currently holds, firing a
// DEmpty marker event for any time already accumulated under the old D.
func (a *Arena) SetDForContinuous(nextIntensity float64) (event.Event, bool) {
	head := &a.nodes[0]
	nextD := event.DFromIntensity(nextIntensity)
	var ret event.Event
	var fired bool
	if nextD < head.d && head.deltaT > 0 {
		ret = event.Event{
			Coord: a.Coord,
			D:     event.DEmpty,
			T:     event.AbsoluteT(head.deltaT),
		}
		fired = true
		head.deltaT = 0
		head.integration = 0
	}
	head.d = nextD
	return ret, fired
}

// Integrate distributes a sample of intensity spanning dt ticks across the
// arena's nodes, firing and branching nodes as their thresholds are crossed.
// After integration, NeedToPopTop is set when the head node must be popped
// to avoid losing accuracy (D reached DMax, or dtm was reached).
func (a *Arena) Integrate(intensity float64, dt float64, mode event.Mode, dtm event.DeltaT, refTime event.DeltaT) {
	tail := &a.nodes[a.length-1]
	if tail.deltaT == 0 && tail.integration == 0 {
		tail.d = event.DFromIntensity(intensity)
	}

	idx := 0
integrateLoop:
	for {
		nextIntensity, nextTime, filled := a.integrateMain(idx, intensity, dt, mode)
		if filled {
			if idx+1 >= len(a.nodes) {
				a.nodes = append(a.nodes, node{})
			}
			a.nodes[idx+1] = newNode(intensity)
			a.length = idx + 2
			intensity = nextIntensity
			dt = nextTime
		}

		idx++

		if filled {
			switch mode {
			case event.FramePerfect:
				break integrateLoop
			case event.Continuous:
				if dt > float64(refTime) {
					a.nodes[idx].d = event.DFromIntensity(intensity)
				}
			}
		}

		if idx >= a.length {
			break
		}
	}

	head := &a.nodes[0]
	a.NeedToPopTop = head.d == event.DMax || event.DeltaT(head.deltaT) >= dtm
}

// integrateMain integrates intensity/dt into the node at index, returning
// the leftover (intensity, dt) to carry into a new branch node when the
// node's threshold was crossed.
func (a *Arena) integrateMain(index int, intensity, dt float64, mode event.Mode) (remIntensity, remDt float64, filled bool) {
	n := &a.nodes[index]
	if n.integration+intensity >= event.DShift(n.d) {
		newD := event.DFromIntensity(n.integration + intensity)
		n.d = newD

		prop := (event.DShift(n.d) - n.integration) / intensity
		if prop <= 0 {
			panic("pixel: non-positive firing proportion")
		}
		n.best = bestEvent{
			valid:  true,
			d:      n.d,
			deltaT: n.deltaT + dt*prop,
		}

		if n.d < event.DMax {
			n.integration += intensity
			n.deltaT += dt
			for {
				n.d++
				if event.DShift(n.d) > n.integration {
					break
				}
			}
		}

		if intensity-(intensity*prop) >= 0 {
			switch mode {
			case event.FramePerfect:
				return 0, 0, true
			case event.Continuous:
				return intensity - (intensity * prop), dt - (dt * prop), true
			}
		}
		return 0, 0, true
	}

	n.integration += intensity
	n.deltaT += dt
	return 0, 0, false
}
