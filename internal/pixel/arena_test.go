package pixel

import (
	"math"
	"testing"

	"github.com/eric-unc/adder-codec-go/internal/event"
)

func approxEq(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func makeTree(t *testing.T) *Arena {
	t.Helper()
	const dtm = 10_000
	tree := NewArena(100.0, event.Coord{})
	if tree.nodes[0].d != 6 {
		t.Fatalf("expected initial d=6, got %d", tree.nodes[0].d)
	}

	tree.Integrate(100.0, 20.0, event.Continuous, dtm, 20)
	if !tree.nodes[0].best.valid {
		t.Fatal("expected best event at node 0")
	}
	if tree.nodes[0].best.d != 6 {
		t.Fatalf("expected best event d=6, got %d", tree.nodes[0].best.d)
	}
	if !approxEq(tree.nodes[0].best.deltaT, 12.8) {
		t.Fatalf("expected best event deltaT=12.8, got %v", tree.nodes[0].best.deltaT)
	}
	if tree.nodes[0].d != 7 {
		t.Fatalf("expected node 0 d=7 after firing, got %d", tree.nodes[0].d)
	}
	if !approxEq(tree.nodes[0].integration, 100.0) {
		t.Fatalf("expected node 0 integration=100, got %v", tree.nodes[0].integration)
	}
	if !approxEq(tree.nodes[0].deltaT, 20.0) {
		t.Fatalf("expected node 0 deltaT=20, got %v", tree.nodes[0].deltaT)
	}
	if tree.length < 2 {
		t.Fatal("expected a branch node after firing")
	}

	n1 := tree.nodes[1]
	if n1.best.valid {
		t.Fatal("expected no best event on branch node yet")
	}
	if n1.d != 6 {
		t.Fatalf("expected branch node d=6, got %d", n1.d)
	}
	if !approxEq(n1.integration, 36.0) {
		t.Fatalf("expected branch integration=36, got %v", n1.integration)
	}
	if !approxEq(n1.deltaT, 7.2) {
		t.Fatalf("expected branch deltaT=7.2, got %v", n1.deltaT)
	}

	tree.Integrate(100.0, 20.0, event.Continuous, dtm, 20)
	if tree.nodes[0].best.d != 7 {
		t.Fatalf("expected best event d=7, got %d", tree.nodes[0].best.d)
	}
	if !approxEq(tree.nodes[0].best.deltaT, 25.6) {
		t.Fatalf("expected best event deltaT=25.6, got %v", tree.nodes[0].best.deltaT)
	}
	if tree.nodes[0].d != 8 {
		t.Fatalf("expected node 0 d=8, got %d", tree.nodes[0].d)
	}
	if !approxEq(tree.nodes[0].integration, 200.0) {
		t.Fatalf("expected node 0 integration=200, got %v", tree.nodes[0].integration)
	}
	if !approxEq(tree.nodes[0].deltaT, 40.0) {
		t.Fatalf("expected node 0 deltaT=40, got %v", tree.nodes[0].deltaT)
	}

	n1 = tree.nodes[1]
	if n1.d != 7 {
		t.Fatalf("expected branch node d=7, got %d", n1.d)
	}
	if !approxEq(n1.integration, 72.0) {
		t.Fatalf("expected branch integration=72, got %v", n1.integration)
	}
	if !approxEq(n1.deltaT, 14.4) {
		t.Fatalf("expected branch deltaT=14.4, got %v", n1.deltaT)
	}
	if n1.best.d != 6 {
		t.Fatalf("expected branch best event d=6, got %d", n1.best.d)
	}
	if !approxEq(n1.best.deltaT, 12.8) {
		t.Fatalf("expected branch best event deltaT=12.8, got %v", n1.best.deltaT)
	}

	n2 := tree.nodes[2]
	if n2.d != 6 {
		t.Fatalf("expected leaf node d=6, got %d", n2.d)
	}
	if n2.best.valid {
		t.Fatal("expected leaf node to have no best event")
	}
	if !approxEq(n2.integration, 8.0) {
		t.Fatalf("expected leaf integration=8, got %v", n2.integration)
	}
	if !approxEq(n2.deltaT, 1.6) {
		t.Fatalf("expected leaf deltaT=1.6, got %v", n2.deltaT)
	}
	return tree
}

func makeTree2(t *testing.T) *Arena {
	t.Helper()
	const dtm = 10_000
	tree := makeTree(t)
	tree.Integrate(30.0, 34.0, event.Continuous, dtm, 34)

	root := tree.nodes[0]
	if root.d != 8 {
		t.Fatalf("expected root d=8, got %d", root.d)
	}
	if !approxEq(root.integration, 230.0) {
		t.Fatalf("expected root integration=230, got %v", root.integration)
	}
	if !approxEq(root.deltaT, 74.0) {
		t.Fatalf("expected root deltaT=74, got %v", root.deltaT)
	}

	alt := tree.nodes[1]
	if alt.d != 7 {
		t.Fatalf("expected alt d=7, got %d", alt.d)
	}
	if !approxEq(alt.integration, 102.0) {
		t.Fatalf("expected alt integration=102, got %v", alt.integration)
	}
	if !approxEq(alt.deltaT, 48.4) {
		t.Fatalf("expected alt deltaT=48.4, got %v", alt.deltaT)
	}

	alt2 := tree.nodes[2]
	if alt2.d != 6 {
		t.Fatalf("expected alt2 d=6, got %d", alt2.d)
	}
	if !approxEq(alt2.integration, 38.0) {
		t.Fatalf("expected alt2 integration=38, got %v", alt2.integration)
	}
	if !approxEq(alt2.deltaT, 35.6) {
		t.Fatalf("expected alt2 deltaT=35.6, got %v", alt2.deltaT)
	}

	tree.Integrate(26.0, 34.0, event.Continuous, dtm, 34)
	if tree.nodes[0].d != 9 {
		t.Fatalf("expected root d=9, got %d", tree.nodes[0].d)
	}
	if !approxEq(tree.nodes[0].integration, 256.0) {
		t.Fatalf("expected root integration=256, got %v", tree.nodes[0].integration)
	}
	if !approxEq(tree.nodes[0].deltaT, 108.0) {
		t.Fatalf("expected root deltaT=108, got %v", tree.nodes[0].deltaT)
	}
	if tree.nodes[0].best.d != 8 {
		t.Fatalf("expected best event d=8, got %d", tree.nodes[0].best.d)
	}
	if tree.nodes[0].best.deltaT != 108.0 {
		t.Fatalf("expected best event deltaT=108, got %v", tree.nodes[0].best.deltaT)
	}

	alt = tree.nodes[1]
	if alt.d != 4 {
		t.Fatalf("expected alt d=4, got %d", alt.d)
	}
	if !approxEq(alt.integration, 0.0) {
		t.Fatalf("expected alt integration=0, got %v", alt.integration)
	}
	if alt.best.valid {
		t.Fatal("expected alt to have no best event")
	}
	return tree
}

func TestMakeTree(t *testing.T) {
	makeTree(t)
}

func TestMakeTree2(t *testing.T) {
	makeTree2(t)
}

func TestPopBestEvents(t *testing.T) {
	tree := makeTree(t)
	events := tree.PopBestEvents(nil, event.Continuous, 20)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].D != 7 || events[0].T != 25 {
		t.Fatalf("unexpected event 0: %+v", events[0])
	}
	if events[1].D != 6 || events[1].T != 12 {
		t.Fatalf("unexpected event 1: %+v", events[1])
	}
	if tree.nodes[0].d != 6 {
		t.Fatalf("expected compacted head d=6, got %d", tree.nodes[0].d)
	}
	if !approxEq(tree.nodes[0].integration, 8.0) {
		t.Fatalf("expected compacted head integration=8, got %v", tree.nodes[0].integration)
	}
}

func TestPopBestEvents2(t *testing.T) {
	tree := makeTree2(t)
	events := tree.PopBestEvents(nil, event.Continuous, 34)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].D != 8 || events[0].T != 108 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if tree.nodes[0].d != 4 {
		t.Fatalf("expected compacted head d=4, got %d", tree.nodes[0].d)
	}
	if !approxEq(tree.nodes[0].integration, 0.0) {
		t.Fatalf("expected compacted head integration=0, got %v", tree.nodes[0].integration)
	}
}

func TestDMax(t *testing.T) {
	const dtm = 100_000_000
	start := math.Ldexp(1, 126)
	tree := NewArena(start, event.Coord{})
	tree.Integrate(start, 100_000.0, event.Continuous, dtm, 100_000)
	if !tree.NeedToPopTop {
		t.Fatal("expected NeedToPopTop after reaching DMax")
	}
	events := tree.PopBestEvents(nil, event.Continuous, 100_000)
	if tree.NeedToPopTop {
		t.Fatal("expected NeedToPopTop cleared")
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].D != 126 {
		t.Fatalf("expected D=126, got %d", events[0].D)
	}
	if events[0].T != 100_000 {
		t.Fatalf("expected T=100000, got %d", events[0].T)
	}
}

func TestDtm(t *testing.T) {
	const dtm = 240_000
	tree := NewArena(245.0, event.Coord{})
	for i := 0; i < 48; i++ {
		tree.Integrate(245.0, 5_000.0, event.FramePerfect, dtm, 5_000)
	}
	if !tree.NeedToPopTop {
		t.Fatal("expected NeedToPopTop after reaching dtm")
	}
	tree.PopTopEvent(245.0, event.FramePerfect, 5_000)
	if tree.NeedToPopTop {
		t.Fatal("expected NeedToPopTop cleared")
	}
	if tree.nodes[0].deltaT != 70_000.0 {
		t.Fatalf("expected head deltaT=70000, got %v", tree.nodes[0].deltaT)
	}
}

func TestBigIntegration(t *testing.T) {
	const dtm = 1_000_000
	tree := NewArena(146.0, event.Coord{})
	tree.Integrate(146.0, 2_000.0, event.Continuous, dtm, 2_000)
	tree.Integrate(2_790.863, 38_231.0, event.Continuous, dtm, 38_231)

	head := tree.nodes[0]
	if !approxEq(head.integration, 2_790.863+146.0) {
		t.Fatalf("unexpected integration: %v", head.integration)
	}
	if !approxEq(head.deltaT, 38_231.0+2_000.0) {
		t.Fatalf("unexpected deltaT: %v", head.deltaT)
	}
	if head.best.d != head.d-1 {
		t.Fatalf("expected best event d=%d, got %d", head.d-1, head.best.d)
	}
}

func TestBigIntegration2(t *testing.T) {
	const dtm = 10_000_000
	tree := NewArena(255.0, event.Coord{})
	for {
		tree.Integrate(255.0, 2_000.0, event.Continuous, dtm, 2_000)
		if tree.NeedToPopTop {
			break
		}
	}
	head := tree.nodes[0]
	if !approxEq(head.integration, 1.275e6) {
		t.Fatalf("unexpected integration: %v", head.integration)
	}
	if head.deltaT != dtm {
		t.Fatalf("expected deltaT=%v, got %v", float64(dtm), head.deltaT)
	}
	if head.best.d != head.d-1 {
		t.Fatalf("expected best event d=%d, got %d", head.d-1, head.best.d)
	}
}

// TestPaperExample mirrors the worked example used in the project's paper.
func TestPaperExample(t *testing.T) {
	const dtm = 10_000
	tree := NewArena(101.0, event.Coord{})
	if tree.nodes[0].d != 6 {
		t.Fatalf("expected initial d=6, got %d", tree.nodes[0].d)
	}
	tree.Integrate(101.0, 20.0, event.Continuous, dtm, 20)
	if !tree.nodes[0].best.valid {
		t.Fatal("expected best event")
	}

	tree.Integrate(40.0, 30.0, event.Continuous, dtm, 30)
	ev := tree.nodes[0].best
	if ev.d != 7 {
		t.Fatalf("expected best event d=7, got %d", ev.d)
	}
	child := tree.nodes[1]
	if !approxEq(child.deltaT, 9.75) {
		t.Fatalf("expected child deltaT=9.75, got %v", child.deltaT)
	}
}

func TestAbsoluteMode1(t *testing.T) {
	const dtm = 10_000
	tree := NewArena(101.0, event.Coord{})
	tree.SetTimeMode(event.TimeModeAbsoluteT)

	if tree.nodes[0].d != 6 {
		t.Fatalf("expected initial d=6, got %d", tree.nodes[0].d)
	}
	tree.Integrate(101.0, 20.0, event.Continuous, dtm, 20)
	if !tree.nodes[0].best.valid {
		t.Fatal("expected best event")
	}

	tree.Integrate(40.0, 30.0, event.Continuous, dtm, 30)
	tree.Integrate(140.0, 30.0, event.Continuous, dtm, 30)
	tree.Integrate(103.0, 30.0, event.Continuous, dtm, 30)

	events := tree.PopBestEvents(nil, event.Continuous, 30)
	if len(events) < 2 {
		t.Fatalf("expected at least 2 events, got %d", len(events))
	}
	if events[0].D != 8 || events[0].T != 74 {
		t.Fatalf("unexpected event 0: %+v", events[0])
	}
	if events[1].D != 7 || events[1].T != 110 {
		t.Fatalf("unexpected event 1: %+v", events[1])
	}
}
