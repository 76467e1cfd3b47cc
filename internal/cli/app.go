package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/mq"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/pipeline"
	"github.com/shaiso/eggo/internal/repo"
)

// ErrNoDatabase — команда требует журнал, а DB_URL не задан.
var ErrNoDatabase = errors.New("DB_URL is not set")

// App — окружение CLI.
type App struct {
	Env    config.Env
	Logger *slog.Logger

	// Runner и HTTPClient подменяются в тестах.
	Runner     command.Runner
	HTTPClient *http.Client
	Store      objstore.Store
}

// NewApp создаёт App из переменных окружения процесса.
func NewApp(logger *slog.Logger) *App {
	return &App{Env: config.FromEnv(), Logger: logger}
}

// Session — ресурсы одной команды.
type Session struct {
	Pipeline *pipeline.Pipeline
	Runs     *repo.RunRepo     // nil без БД
	TaskRuns *repo.TaskRunRepo // nil без БД

	closers []func()
}

// Close освобождает ресурсы в обратном порядке.
func (s *Session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// SessionOptions — что открывать помимо конвейера.
type SessionOptions struct {
	// Stdout — куда внешние команды пишут stdout (default: os.Stdout).
	Stdout io.Writer

	// Dispatcher переопределяет Env.Dispatcher.
	Dispatcher string
}

// Open открывает ресурсы команды.
func (a *App) Open(ctx context.Context, opts SessionOptions) (_ *Session, err error) {
	s := &Session{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	env := a.Env
	if opts.Dispatcher != "" {
		env.Dispatcher = opts.Dispatcher
	}

	store := a.Store
	if store == nil {
		store, err = objstore.New(env)
		if err != nil {
			return nil, err
		}
	}

	runner := a.Runner
	if runner == nil {
		r := command.NewExecRunner(a.Logger)
		r.Stdout = opts.Stdout
		runner = r
	}

	cfg := pipeline.Config{
		Env:        env,
		Store:      store,
		Runner:     runner,
		HTTPClient: a.HTTPClient,
		Logger:     a.Logger,
	}

	if env.DatabaseURL != "" {
		if err := s.openLedger(ctx, env.DatabaseURL, a.Logger); err != nil {
			return nil, err
		}
		cfg.Runs = s.Runs
		cfg.Observers = append(cfg.Observers, repo.NewLedger(s.TaskRuns, a.Logger))
	}

	if env.Dispatcher == config.DispatcherAMQP {
		conn, err := openBroker(ctx, env.RabbitMQURL, a.Logger)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { conn.Close() })
		cfg.Conn = conn
	}

	s.Pipeline, err = pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) openLedger(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := repo.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to run ledger: %w", err)
	}
	s.closers = append(s.closers, pool.Close)

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	s.Runs = repo.NewRunRepo(pool)
	s.TaskRuns = repo.NewTaskRunRepo(pool)
	logger.Debug("run ledger connected")
	return nil
}

func openBroker(ctx context.Context, url string, logger *slog.Logger) (*mq.Connection, error) {
	if url == "" {
		url = mq.DefaultURL()
	}
	conn, err := mq.NewConnection(url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// OpenLedger открывает только журнал (для history).
func (a *App) OpenLedger(ctx context.Context) (*Session, error) {
	if a.Env.DatabaseURL == "" {
		return nil, ErrNoDatabase
	}
	s := &Session{}
	if err := s.openLedger(ctx, a.Env.DatabaseURL, a.Logger); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
