package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/eggo/internal/domain"
)

func TestBuildDAG_Diamond(t *testing.T) {
	// A → B → D, A → C → D (D зависит от B и C)
	w := newWorld()
	a := &fakeTask{w: w, name: "A"}
	b := &fakeTask{w: w, name: "B", deps: deps(a)}
	c := &fakeTask{w: w, name: "C", deps: deps(a)}
	d := &fakeTask{w: w, name: "D", deps: deps(b, c)}

	dag, err := BuildDAG(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dag.Size() != 4 {
		t.Errorf("expected 4 nodes, got %d", dag.Size())
	}
	if len(dag.RootNodes) != 1 || dag.RootNodes[0].ID != a.ID() {
		t.Errorf("expected single root A, got %v", dag.RootNodes)
	}

	pos := make(map[string]int)
	for i, node := range dag.Order {
		pos[node.ID] = i
	}
	if pos[a.ID()] > pos[b.ID()] || pos[a.ID()] > pos[c.ID()] {
		t.Error("A must come before B and C")
	}
	if pos[b.ID()] > pos[d.ID()] || pos[c.ID()] > pos[d.ID()] {
		t.Error("B and C must come before D")
	}
	if got := dag.GetNode(d.ID()).InDegree; got != 2 {
		t.Errorf("expected D in-degree 2, got %d", got)
	}
}

func TestBuildDAG_Cycle(t *testing.T) {
	w := newWorld()
	var a, b *fakeTask
	a = &fakeTask{w: w, name: "A", deps: func() []Task { return []Task{b} }}
	b = &fakeTask{w: w, name: "B", deps: func() []Task { return []Task{a} }}

	_, err := BuildDAG(a)
	if !errors.Is(err, domain.ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}
}

func TestPlan_DoesNotRun(t *testing.T) {
	w := newWorld()
	a, b, c := chain(w)
	w.present["out/A"] = true

	entries, err := Plan(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.totalRuns() != 0 {
		t.Error("plan must not execute tasks")
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantIDs := []string{a.ID(), b.ID(), c.ID()}
	wantComplete := []bool{true, false, false}
	for i, e := range entries {
		if e.ID != wantIDs[i] || e.Complete != wantComplete[i] {
			t.Errorf("entry %d: got %s complete=%v", i, e.ID, e.Complete)
		}
	}
	if len(entries[2].Requires) != 1 || entries[2].Requires[0] != b.ID() {
		t.Errorf("C must require B, got %v", entries[2].Requires)
	}
	if len(entries[0].Outputs) != 1 || entries[0].Outputs[0] != "out/A" {
		t.Errorf("unexpected outputs %v", entries[0].Outputs)
	}
}
