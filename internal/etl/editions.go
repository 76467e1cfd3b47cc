package etl

import (
	"context"
	"slices"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/target"
)

// RuleKind — вид правила зависимости.
type RuleKind int

const (
	// RuleAlways — зависимость есть всегда.
	RuleAlways RuleKind = iota

	// RuleIfEdition — зависимость есть, если запрошена редакция Edition.
	RuleIfEdition
)

// DependencyRule — правило включения зависимости.
// Build вызывается только для сработавших правил.
type DependencyRule struct {
	Kind    RuleKind
	Edition string
	Build   func() engine.Task
}

// Always — безусловная зависимость.
func Always(build func() engine.Task) DependencyRule {
	return DependencyRule{Kind: RuleAlways, Build: build}
}

// IfEdition — зависимость при запрошенной редакции.
func IfEdition(edition string, build func() engine.Task) DependencyRule {
	return DependencyRule{Kind: RuleIfEdition, Edition: edition, Build: build}
}

// Applies сообщает, срабатывает ли правило для набора редакций.
func (r DependencyRule) Applies(editions []string) bool {
	switch r.Kind {
	case RuleAlways:
		return true
	case RuleIfEdition:
		return slices.Contains(editions, r.Edition)
	default:
		return false
	}
}

// EvaluateRules строит зависимости по сработавшим правилам в их порядке.
func EvaluateRules(rules []DependencyRule, editions []string) []engine.Task {
	var deps []engine.Task
	for _, r := range rules {
		if r.Applies(editions) {
			deps = append(deps, r.Build())
		}
	}
	return deps
}

// EditionsTask — все запрошенные редакции датасета для одного конвейера.
// Собственного действия и outputs нет.
type EditionsTask struct {
	Pipeline Pipeline
	Dataset  string
	Editions []string

	deps []engine.Task
}

// NewEditionsTask вычисляет зависимости по правилам один раз.
func NewEditionsTask(p Pipeline, dataset string, editions []string, rules []DependencyRule) *EditionsTask {
	return &EditionsTask{
		Pipeline: p,
		Dataset:  dataset,
		Editions: editions,
		deps:     EvaluateRules(rules, editions),
	}
}

// StageRules — правила конвейера: basic всегда, flat по запросу.
func StageRules(svc *Services, basic *BasicStageTask) []DependencyRule {
	return []DependencyRule{
		Always(func() engine.Task { return basic }),
		IfEdition(config.EditionFlat, func() engine.Task { return NewFlattenStageTask(svc, basic) }),
	}
}

func (t *EditionsTask) ID() string {
	return engine.FormatID(t.Pipeline.Name, "dataset", t.Dataset)
}

func (t *EditionsTask) Requires() []engine.Task { return t.deps }

func (t *EditionsTask) Outputs() []target.Target { return nil }

func (t *EditionsTask) Run(_ context.Context) error { return nil }
