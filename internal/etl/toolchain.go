package etl

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/telemetry"
)

// FlattenCommand — команда ADAM для редакции flat.
const FlattenCommand = "flatten"

// Toolchain строит и запускает команды hadoop и adam-submit.
type Toolchain struct {
	Runner command.Runner
	Env    config.Env
}

// NewToolchain создаёт Toolchain.
func NewToolchain(runner command.Runner, env config.Env) *Toolchain {
	return &Toolchain{Runner: runner, Env: env}
}

// DistcpCmd — hadoop distcp src dst. s3:// переписывается в схему Hadoop.
func (t *Toolchain) DistcpCmd(src, dst string) command.Cmd {
	return command.Cmd{
		Name: t.Env.HadoopBin(),
		Args: []string{"distcp", t.Env.HadoopURL(src), t.Env.HadoopURL(dst)},
	}
}

// AdamCmd — adam-submit --master <spark> <adamCommand> src dst.
func (t *Toolchain) AdamCmd(adamCommand, src, dst string) command.Cmd {
	return command.Cmd{
		Name: t.Env.AdamSubmitBin(),
		Args: []string{
			"--master", t.Env.SparkMasterURL,
			adamCommand,
			t.Env.HadoopURL(src),
			t.Env.HadoopURL(dst),
		},
	}
}

// Distcp копирует данные между object store и HDFS.
func (t *Toolchain) Distcp(ctx context.Context, src, dst string) error {
	cmd := t.DistcpCmd(src, dst)
	telemetry.FromContext(ctx).Info("running distcp", "source", src, "target", dst)
	if err := t.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("distcp %s: %w", src, err)
	}
	return nil
}

// Adam запускает задачу ADAM на Spark.
func (t *Toolchain) Adam(ctx context.Context, adamCommand, src, dst string) error {
	cmd := t.AdamCmd(adamCommand, src, dst)
	telemetry.FromContext(ctx).Info("running adam-submit",
		"command", adamCommand,
		"source", src,
		"target", dst,
	)
	if err := t.Runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("adam %s: %w", adamCommand, err)
	}
	return nil
}

// StagingPath — уникальный путь в HDFS для копии сырых данных.
func StagingPath(format string) string {
	return fmt.Sprintf("/tmp/%s.%s", uuid.NewString(), format)
}

// RemoveStaging удаляет копию в HDFS. Ошибка только логируется:
// результат стадии от неё не зависит.
func (t *Toolchain) RemoveStaging(ctx context.Context, p string) {
	cmd := command.Cmd{
		Name: t.Env.HadoopBin(),
		Args: []string{"fs", "-rm", "-r", "-f", "-skipTrash", p},
	}
	if err := t.Runner.Run(context.WithoutCancel(ctx), cmd); err != nil {
		telemetry.FromContext(ctx).Warn("failed to remove staging copy", "path", p, "error", err)
	}
}
