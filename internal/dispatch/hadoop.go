package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/telemetry"
)

// Параметры streaming job.
const (
	// TaskTimeoutMillis — таймаут одной map-задачи (загрузки бывают многочасовыми).
	TaskTimeoutMillis = 12000000

	NLineInputFormat = "org.apache.hadoop.mapred.lib.NLineInputFormat"
	NullOutputFormat = "org.apache.hadoop.mapred.lib.NullOutputFormat"
)

// Hadoop раздаёт строки через Hadoop streaming: NLineInputFormat даёт
// по строке на mapper, mapper — `eggo map --destination <prefix>`.
//
// Speculative execution выключена: два экземпляра одной map-задачи
// писали бы в одни и те же объекты.
type Hadoop struct {
	Runner command.Runner
	Env    config.Env

	// MapperCommand — бинарник eggo на узлах кластера.
	MapperCommand string
}

// NewHadoop создаёт Hadoop-диспетчер.
func NewHadoop(runner command.Runner, env config.Env) *Hadoop {
	return &Hadoop{Runner: runner, Env: env, MapperCommand: "eggo"}
}

// Dispatch запускает streaming job и ждёт его завершения.
// Успешный код выхода означает, что все map-задачи завершились.
func (h *Hadoop) Dispatch(ctx context.Context, job download.Job) error {
	if h.Env.StreamingJar == "" {
		return ErrNoStreamingJar
	}

	telemetry.FromContext(ctx).Info("submitting hadoop streaming job",
		"job_id", job.ID,
		"input", job.Partition,
	)
	return h.Runner.Run(ctx, h.Command(job))
}

// Command строит вызов `hadoop jar` для задания.
func (h *Hadoop) Command(job download.Job) command.Cmd {
	mapper := h.MapperCommand
	if mapper == "" {
		mapper = "eggo"
	}

	args := []string{
		"jar", h.Env.StreamingJar,
		"-D", "mapred.map.tasks.speculative.execution=false",
		"-D", "mapreduce.map.speculative=false",
		"-D", "mapred.task.timeout=" + strconv.Itoa(TaskTimeoutMillis),
		"-D", "mapred.job.name=eggo-download-" + job.ID,
		"-inputformat", NLineInputFormat,
		"-outputformat", NullOutputFormat,
		"-input", job.Partition,
		"-output", job.Partition + ".out-" + job.ID,
		"-mapper", strings.Join([]string{mapper, "map", "--destination", job.Destination}, " "),
		"-numReduceTasks", "0",
	}

	vars := h.Env.Vars()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-cmdenv", fmt.Sprintf("%s=%s", k, vars[k]))
	}

	return command.Cmd{Name: h.Env.HadoopBin(), Args: args}
}
