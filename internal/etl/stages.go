package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/target"
)

// Services — общие зависимости стадий ETL.
type Services struct {
	Env   config.Env
	Store objstore.Store
	Tools *Toolchain
}

// BasicStageTask — конвертация сырых данных в редакцию basic.
type BasicStageTask struct {
	svc      *Services
	Pipeline Pipeline
	Dataset  string
	Format   string

	// Upstream — задача загрузки, готовность которой означает полный
	// набор сырых данных под Source.
	Upstream engine.Task
	Source   string
}

// NewBasicStageTask создаёт стадию basic поверх задачи загрузки.
func NewBasicStageTask(svc *Services, p Pipeline, dataset, format string, upstream engine.Task, source string) *BasicStageTask {
	return &BasicStageTask{
		svc:      svc,
		Pipeline: p,
		Dataset:  dataset,
		Format:   strings.ToLower(format),
		Upstream: upstream,
		Source:   source,
	}
}

func (t *BasicStageTask) ID() string {
	return engine.FormatID("ADAMBasic",
		"dataset", t.Dataset,
		"command", t.Pipeline.AdamCommand,
	)
}

func (t *BasicStageTask) Requires() []engine.Task {
	return []engine.Task{t.Upstream}
}

// Destination — префикс редакции basic.
func (t *BasicStageTask) Destination() string {
	return t.svc.Env.TargetURL(t.Dataset, config.DefaultFormat, config.EditionBasic)
}

func (t *BasicStageTask) Outputs() []target.Target {
	return []target.Target{target.NewFlag(t.svc.Store, t.Destination())}
}

func (t *BasicStageTask) Run(ctx context.Context) error {
	if !t.Pipeline.Accepts(t.Format) {
		return fmt.Errorf("%w: %q not in %v accepted by %s",
			domain.ErrUnsupportedFormat, t.Format, t.Pipeline.Formats, t.Pipeline.AdamCommand)
	}

	staging := StagingPath(t.Format)
	if err := t.svc.Tools.Distcp(ctx, t.Source, staging); err != nil {
		return err
	}
	defer t.svc.Tools.RemoveStaging(ctx, staging)

	return t.svc.Tools.Adam(ctx, t.Pipeline.AdamCommand, staging, t.Destination())
}

// FlattenStageTask — редакция flat из редакции basic.
type FlattenStageTask struct {
	svc   *Services
	Basic *BasicStageTask
}

// NewFlattenStageTask создаёт стадию flat.
func NewFlattenStageTask(svc *Services, basic *BasicStageTask) *FlattenStageTask {
	return &FlattenStageTask{svc: svc, Basic: basic}
}

func (t *FlattenStageTask) ID() string {
	return engine.FormatID("ADAMFlatten",
		"dataset", t.Basic.Dataset,
		"command", t.Basic.Pipeline.AdamCommand,
	)
}

func (t *FlattenStageTask) Requires() []engine.Task {
	return []engine.Task{t.Basic}
}

// Destination — префикс редакции flat.
func (t *FlattenStageTask) Destination() string {
	return t.svc.Env.TargetURL(t.Basic.Dataset, config.DefaultFormat, config.EditionFlat)
}

func (t *FlattenStageTask) Outputs() []target.Target {
	return []target.Target{target.NewFlag(t.svc.Store, t.Destination())}
}

func (t *FlattenStageTask) Run(ctx context.Context) error {
	return t.svc.Tools.Adam(ctx, FlattenCommand, t.Basic.Destination(), t.Destination())
}
