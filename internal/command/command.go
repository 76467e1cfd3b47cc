// Package command — запуск внешних инструментов (hadoop, adam-submit, gtdownload).
//
// Все внешние программы вызываются через Runner, чтобы задачи можно было
// тестировать с подменённым исполнителем. Окружение передаётся явно в Cmd.Env
// и дополняет окружение процесса.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/telemetry"
)

// Cmd — описание вызова внешней программы.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// String — командная строка для логов.
func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner — исполнитель внешних команд.
type Runner interface {
	// Run выполняет команду; ненулевой код выхода — ошибка *CommandError.
	Run(ctx context.Context, cmd Cmd) error

	// Output выполняет команду и возвращает её stdout.
	Output(ctx context.Context, cmd Cmd) ([]byte, error)
}

// CommandError — внешняя команда завершилась с ошибкой.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int // -1, если процесс не был запущен
	Stderr   string
	Err      error
}

// Error реализует интерфейс error.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s failed to start: %v", e.Name, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap — любая ошибка команды считается ErrExternalCommandFailed.
func (e *CommandError) Unwrap() error {
	return domain.ErrExternalCommandFailed
}

// ExitCode извлекает код выхода из ошибки Runner'а (-1, если его нет).
func ExitCode(err error) int {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	return -1
}

// ExecRunner — Runner поверх os/exec.
//
// Запущенный процесс не убивается при отмене ctx: внешние инструменты
// (Hadoop job, gtdownload) дорабатывают сами. ctx проверяется до запуска.
type ExecRunner struct {
	Logger *slog.Logger

	// StderrLimit — сколько байт stderr сохранять в CommandError.
	StderrLimit int

	// Stdout — куда Run пишет stdout команд (default: os.Stdout).
	// В режиме mapper stdout занят результатом, вывод уходит в stderr.
	Stdout io.Writer
}

// NewExecRunner создаёт ExecRunner.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{Logger: logger, StderrLimit: 4096}
}

// Run выполняет команду, stdout пробрасывается в Stdout.
func (r *ExecRunner) Run(ctx context.Context, cmd Cmd) error {
	stdout := r.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return r.run(ctx, cmd, stdout)
}

// Output выполняет команду и возвращает stdout.
func (r *ExecRunner) Output(ctx context.Context, cmd Cmd) ([]byte, error) {
	var stdout bytes.Buffer
	err := r.run(ctx, cmd, &stdout)
	return stdout.Bytes(), err
}

func (r *ExecRunner) run(ctx context.Context, cmd Cmd, stdout io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := telemetry.FromContextOr(ctx, r.Logger)
	logger.Info("running external command", "command", cmd.String())

	c := exec.Command(cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = stdout

	stderr := &limitedBuffer{limit: r.StderrLimit}
	c.Stderr = io.MultiWriter(os.Stderr, stderr)

	if len(cmd.Env) > 0 {
		c.Env = os.Environ()
		for k, v := range cmd.Env {
			c.Env = append(c.Env, k+"="+v)
		}
	}

	err := c.Run()
	if err == nil {
		return nil
	}

	cerr := &CommandError{
		Name:     cmd.Name,
		Args:     cmd.Args,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	}

	logger.Error("external command failed",
		"command", cmd.String(),
		"exit_code", cerr.ExitCode,
	)
	return cerr
}

// limitedBuffer хранит только хвост вывода, не больше limit байт.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if b.limit <= 0 {
		return n, nil
	}
	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return n, nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}

// RunnerFunc адаптирует функцию к Runner.
type RunnerFunc func(ctx context.Context, cmd Cmd) ([]byte, error)

// Run вызывает f и отбрасывает вывод.
func (f RunnerFunc) Run(ctx context.Context, cmd Cmd) error {
	_, err := f(ctx, cmd)
	return err
}

// Output вызывает f.
func (f RunnerFunc) Output(ctx context.Context, cmd Cmd) ([]byte, error) {
	return f(ctx, cmd)
}
