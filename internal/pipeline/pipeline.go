package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/engine"
	"github.com/shaiso/eggo/internal/etl"
	"github.com/shaiso/eggo/internal/fetch"
	"github.com/shaiso/eggo/internal/mq"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/telemetry"
)

// RunStore сохраняет записи о проходах.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
}

// Config — конфигурация Pipeline.
type Config struct {
	Env    config.Env
	Store  objstore.Store
	Runner command.Runner

	// HTTPClient — клиент для HTTP-источников (default: http.DefaultClient).
	HTTPClient *http.Client

	// Conn — соединение с RabbitMQ, нужно только для режима amqp.
	Conn *mq.Connection

	// Runs — журнал проходов (опционально).
	Runs RunStore

	// Observers — дополнительные наблюдатели задач (например, repo.Ledger).
	Observers []engine.Observer

	Logger *slog.Logger
}

// Options — параметры одной сборки графа.
type Options struct {
	// Serial — последовательная загрузка вместо fan-out.
	Serial bool

	// Pipeline — имя конвейера; пусто — выбирается по формату источников.
	Pipeline string
}

// Pipeline собирает и выполняет граф задач датасета.
type Pipeline struct {
	env       config.Env
	store     objstore.Store
	runs      RunStore
	observers []engine.Observer
	logger    *slog.Logger

	processor    *download.Processor
	downloads    *download.Services
	partitionDir string
	stages       *etl.Services
}

// New создаёт Pipeline. Исполнительный слой fan-out выбирается по Env.Dispatcher.
func New(cfg Config) (*Pipeline, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	fetchers := fetch.NewFetchers(cfg.Env, cfg.Runner, client)
	transfer := download.NewTransfer(cfg.Env, cfg.Store, fetchers, logger)
	processor := download.NewProcessor(transfer, cfg.Store)

	backend, err := NewBackend(cfg.Env.Dispatcher, BackendDeps{
		Env:       cfg.Env,
		Runner:    cfg.Runner,
		Store:     cfg.Store,
		Processor: processor,
		Conn:      cfg.Conn,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		env:          cfg.Env,
		store:        cfg.Store,
		runs:         cfg.Runs,
		observers:    cfg.Observers,
		logger:       logger,
		processor:    processor,
		partitionDir: backend.PartitionDir,
		downloads: &download.Services{
			Env:        cfg.Env,
			Store:      cfg.Store,
			Transfer:   transfer,
			Partitions: backend.Partitions,
			Dispatcher: backend.Dispatcher,
		},
		stages: &etl.Services{
			Env:   cfg.Env,
			Store: cfg.Store,
			Tools: etl.NewToolchain(cfg.Runner, cfg.Env),
		},
	}, nil
}

// Processor — обработчик строк partition-файла (для `eggo map` и воркеров).
func (p *Pipeline) Processor() *download.Processor {
	return p.processor
}

// Build строит корневую задачу датасета. Построение чистое:
// форма графа зависит только от конфигурации и opts.
func (p *Pipeline) Build(pc *config.PipelineConfig, opts Options) (*etl.EditionsTask, error) {
	conv, err := p.selectPipeline(pc, opts)
	if err != nil {
		return nil, err
	}

	raw := p.env.RawDataURL(pc.Name)

	var upstream engine.Task
	if opts.Serial {
		upstream = download.NewDownloadDatasetTask(p.downloads, pc.Name, pc.Sources, raw)
	} else {
		upstream, err = download.NewFanoutDownloadTask(p.downloads, pc.Name, pc.Sources, raw, p.partitionDir)
		if err != nil {
			return nil, err
		}
	}

	basic := etl.NewBasicStageTask(p.stages, conv, pc.Name, pc.Format(), upstream, raw)
	return etl.NewEditionsTask(conv, pc.Name, pc.Editions, etl.StageRules(p.stages, basic)), nil
}

func (p *Pipeline) selectPipeline(pc *config.PipelineConfig, opts Options) (etl.Pipeline, error) {
	if opts.Pipeline != "" {
		return etl.Lookup(opts.Pipeline)
	}
	conv, err := etl.ForFormat(pc.Format())
	if err != nil {
		return etl.Pipeline{}, fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err)
	}
	return conv, nil
}

// Run выполняет проход для датасета.
//
// Проход записывается в RunStore (если задан), события задач уходят
// наблюдателям и в метрики. Ошибки журнала не прерывают проход.
func (p *Pipeline) Run(ctx context.Context, pc *config.PipelineConfig, opts Options) (*engine.Result, error) {
	root, err := p.Build(pc, opts)
	if err != nil {
		return nil, err
	}

	run := domain.NewRun(pc.Name, root.Pipeline.Name)
	logger := telemetry.WithDataset(telemetry.WithRunID(p.logger, run.ID.String()), pc.Name)

	if p.runs != nil {
		if err := p.runs.Create(ctx, run); err != nil {
			logger.Warn("failed to record run start", "error", err)
		}
	}

	observers := append([]engine.Observer{MetricsObserver()}, p.observers...)
	resolver := engine.NewResolver(engine.Config{
		Logger:    telemetry.WithDataset(p.logger, pc.Name),
		Observers: observers,
	})

	logger.Info("starting pipeline run",
		"pipeline", root.Pipeline.Name,
		"editions", pc.Editions,
		"serial", opts.Serial,
	)

	res, runErr := resolver.ResolveRun(ctx, run.ID, root)
	run.Executed = len(res.Executed)
	run.Skipped = len(res.Skipped)
	if runErr != nil {
		run.MarkFailed(runErr.Error())
		logger.Error("pipeline run failed", "error", runErr)
	} else {
		run.MarkSucceeded()
		logger.Info("pipeline run succeeded", "executed", run.Executed, "skipped", run.Skipped)
	}
	telemetry.RunsTotal.WithLabelValues(string(run.Status)).Inc()

	if p.runs != nil {
		if err := p.runs.Update(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to record run result", "error", err)
		}
	}

	return res, runErr
}

// Status показывает задачи графа в порядке выполнения с их готовностью.
func (p *Pipeline) Status(ctx context.Context, pc *config.PipelineConfig, opts Options) ([]engine.PlanEntry, error) {
	root, err := p.Build(pc, opts)
	if err != nil {
		return nil, err
	}
	return engine.Plan(ctx, root)
}

// Delete удаляет сырые данные и редакции датасета.
func (p *Pipeline) Delete(ctx context.Context, dataset string) error {
	return etl.DeleteDataset(telemetry.WithLogger(ctx, p.logger), p.store, p.env, dataset)
}
