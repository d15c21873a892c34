package block

import (
	"testing"

	"github.com/eric-unc/adder-codec-go/internal/event"
)

func TestForwardInverseIntraPredictionRoundTrip(t *testing.T) {
	var events Events
	events[5] = &event.EventCoordless{D: 10, DeltaT: 100}
	events[10] = &event.EventCoordless{D: 12, DeltaT: 150}
	events[200] = &event.EventCoordless{D: 8, DeltaT: 90}

	const dtRef event.DeltaT = 1000
	const dtm event.DeltaT = 100000

	enc := NewPredictionModel(event.Continuous)
	startDeltaT, startD, dResiduals, dtResidualsI16, sparam := enc.ForwardIntraPrediction(0, dtRef, dtm, events)

	if startD != 10 || startDeltaT != 100 {
		t.Fatalf("unexpected start event: d=%d t=%d", startD, startDeltaT)
	}

	dec := NewPredictionModel(event.Continuous)
	decoded := dec.InverseIntraPrediction(startD, event.AbsoluteT(startDeltaT), *dResiduals, *dtResidualsI16, sparam, dtRef)

	for idx, want := range events {
		got := decoded[idx]
		if want == nil {
			if got != nil {
				t.Fatalf("idx %d: expected no event, got %+v", idx, got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("idx %d: expected event %+v, got none", idx, want)
		}
		if got.D != want.D || got.DeltaT != want.DeltaT {
			t.Fatalf("idx %d: got %+v, want %+v", idx, got, want)
		}
	}
}

func TestForwardInverseInterPredictionRoundTrip(t *testing.T) {
	const dtRef event.DeltaT = 1000
	const dtm event.DeltaT = 100000

	priorMem := event.EventCoordless{D: 5, DeltaT: 50}

	var events Events
	events[3] = &event.EventCoordless{D: 7, DeltaT: 1080}

	enc := NewPredictionModel(event.Continuous)
	enc.EventMemory[3] = priorMem
	enc.TRecon[3] = 1000
	enc.TMemory[3] = 1000

	dResiduals, dtResidualsI16, sparam := enc.ForwardInterPrediction(0, dtm, dtRef, events)

	dec := NewPredictionModel(event.Continuous)
	dec.EventMemory[3] = priorMem
	dec.TRecon[3] = 1000
	dec.SetResidualsForInverse(*dResiduals, *dtResidualsI16)

	decoded := dec.InverseInterPrediction(sparam, dtm, dtRef)

	got := decoded[3]
	if got == nil {
		t.Fatal("expected a reconstructed event at index 3")
	}
	if got.D != 7 {
		t.Fatalf("D = %d, want 7", got.D)
	}
	if got.DeltaT != 1080 {
		t.Fatalf("DeltaT = %d, want 1080", got.DeltaT)
	}

	for idx := range decoded {
		if idx == 3 {
			continue
		}
		if decoded[idx] != nil {
			t.Fatalf("idx %d: expected no event, got %+v", idx, decoded[idx])
		}
	}
}

func TestChooseSparamRaisesShiftForLargeResiduals(t *testing.T) {
	got := chooseSparam(0, 1<<40)
	if got == 0 {
		t.Fatal("expected chooseSparam to raise shift for a large residual")
	}
}

func TestChooseSparamLeavesSmallResidualsUnshifted(t *testing.T) {
	got := chooseSparam(0, 1)
	if got != 0 {
		t.Fatalf("chooseSparam(0, 1) = %d, want 0", got)
	}
}
