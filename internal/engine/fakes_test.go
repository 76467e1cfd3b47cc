package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/target"
)

// world — хранилище targets в памяти, общее для всех задач теста.
type world struct {
	mu      sync.Mutex
	present map[string]bool
	broken  map[string]bool
	order   []string
	runs    map[string]int
}

func newWorld() *world {
	return &world{
		present: make(map[string]bool),
		broken:  make(map[string]bool),
		runs:    make(map[string]int),
	}
}

func (w *world) ran(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.order = append(w.order, id)
	w.runs[id]++
}

func (w *world) totalRuns() int {
	n := 0
	for _, c := range w.runs {
		n += c
	}
	return n
}

type memTarget struct {
	w    *world
	name string
}

func (t *memTarget) String() string    { return t.name }
func (t *memTarget) Kind() target.Kind { return target.KindFlag }

func (t *memTarget) Exists(_ context.Context) (bool, error) {
	t.w.mu.Lock()
	defer t.w.mu.Unlock()
	if t.w.broken[t.name] {
		return false, domain.ErrTargetUnavailable
	}
	return t.w.present[t.name], nil
}

func (t *memTarget) MarkComplete(_ context.Context) error {
	t.w.mu.Lock()
	defer t.w.mu.Unlock()
	t.w.present[t.name] = true
	return nil
}

// fakeTask — задача с одним target "out/<name>".
type fakeTask struct {
	w    *world
	name string
	deps func() []Task
	err  error
	// noOutput — задача-обёртка без результатов.
	noOutput bool
}

func (t *fakeTask) ID() string { return FormatID("Fake", "name", t.name) }

func (t *fakeTask) Requires() []Task {
	if t.deps == nil {
		return nil
	}
	return t.deps()
}

func (t *fakeTask) Outputs() []target.Target {
	if t.noOutput {
		return nil
	}
	return []target.Target{&memTarget{w: t.w, name: "out/" + t.name}}
}

func (t *fakeTask) Run(_ context.Context) error {
	t.w.ran(t.name)
	return t.err
}

func deps(tasks ...Task) func() []Task {
	return func() []Task { return tasks }
}

var errBoom = errors.New("boom")
