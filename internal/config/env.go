package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CGHubPublicKey — публичный ключ CGHub, используется если CGHUB_KEY не задан.
const CGHubPublicKey = "https://cghub.ucsc.edu/software/downloads/cghub_public.key"

// DefaultFormat — формат конвертированных данных в путях target.
const DefaultFormat = "bdg"

// Режимы fan-out загрузки.
const (
	DispatcherHadoop = "hadoop"
	DispatcherAMQP   = "amqp"
	DispatcherLocal  = "local"
)

// Env — окружение выполнения.
//
// Собирается один раз на границе процесса (FromEnv) и передаётся явно
// во все задачи и внешние команды. Ни одна задача не читает os.Getenv сама.
type Env struct {
	// Object store
	BucketURL       string // корень конвертированных датасетов (s3://bucket или file:///dir)
	RawURL          string // корень сырых данных
	TmpURL          string // временные объекты перед атомарным move
	HadoopS3Scheme  string // схема s3 для Hadoop-команд (s3n, s3a)
	S3Endpoint      string
	S3Secure        bool
	AccessKeyID     string
	SecretAccessKey string

	// Локальные ресурсы
	EphemeralMount string // где создаются scratch-директории

	// Hadoop / Spark / ADAM
	HadoopHome     string
	AdamHome       string
	SparkMasterURL string
	StreamingJar   string
	PartitionDir   string // каталог partition-файлов в HDFS

	// CGHub
	CGHubKey          string
	GTDownloadThreads int

	// Fan-out
	Dispatcher string

	// Инфраструктура
	DatabaseURL    string
	RabbitMQURL    string
	PushgatewayURL string
}

// FromEnv собирает Env из переменных окружения процесса.
func FromEnv() Env {
	return FromLookup(os.LookupEnv)
}

// FromLookup собирает Env через произвольную функцию поиска (удобно для тестов).
func FromLookup(lookup func(string) (string, bool)) Env {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	bucket := strings.TrimRight(get("EGGO_BUCKET_URL", "s3://bdg-eggo"), "/")

	threads, err := strconv.Atoi(get("GTDOWNLOAD_THREADS", "8"))
	if err != nil || threads <= 0 {
		threads = 8
	}

	secure, err := strconv.ParseBool(get("S3_SECURE", "true"))
	if err != nil {
		secure = true
	}

	return Env{
		BucketURL:         bucket,
		RawURL:            strings.TrimRight(get("EGGO_RAW_URL", bucket+"/raw"), "/"),
		TmpURL:            strings.TrimRight(get("EGGO_TMP_URL", bucket+"/tmp"), "/"),
		HadoopS3Scheme:    get("EGGO_HADOOP_S3_SCHEME", "s3n"),
		S3Endpoint:        get("S3_ENDPOINT", "s3.amazonaws.com"),
		S3Secure:          secure,
		AccessKeyID:       get("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey:   get("AWS_SECRET_ACCESS_KEY", ""),
		EphemeralMount:    get("EPHEMERAL_MOUNT", "/mnt"),
		HadoopHome:        get("HADOOP_HOME", "/root/ephemeral-hdfs"),
		AdamHome:          get("ADAM_HOME", "/root/adam"),
		SparkMasterURL:    get("SPARK_MASTER_URL", "yarn"),
		StreamingJar:      get("STREAMING_JAR", ""),
		PartitionDir:      get("EGGO_PARTITION_DIR", "/tmp/eggo/partitions"),
		CGHubKey:          get("CGHUB_KEY", CGHubPublicKey),
		GTDownloadThreads: threads,
		Dispatcher:        get("EGGO_DISPATCHER", DispatcherHadoop),
		DatabaseURL:       get("DB_URL", ""),
		RabbitMQURL:       get("RABBITMQ_URL", ""),
		PushgatewayURL:    get("PUSHGATEWAY_URL", ""),
	}
}

// Vars — переменные окружения, из которых FromLookup восстановит этот Env.
// Передаются внешним исполнителям (mapper Hadoop streaming).
// Пустые значения пропускаются. Учётные данные S3 не экспортируются:
// mapper берёт их из окружения узлов кластера.
func (e Env) Vars() map[string]string {
	vars := map[string]string{
		"EGGO_BUCKET_URL":       e.BucketURL,
		"EGGO_RAW_URL":          e.RawURL,
		"EGGO_TMP_URL":          e.TmpURL,
		"EGGO_HADOOP_S3_SCHEME": e.HadoopS3Scheme,
		"S3_ENDPOINT":           e.S3Endpoint,
		"S3_SECURE":             strconv.FormatBool(e.S3Secure),
		"EPHEMERAL_MOUNT":       e.EphemeralMount,
		"HADOOP_HOME":           e.HadoopHome,
		"ADAM_HOME":             e.AdamHome,
		"SPARK_MASTER_URL":      e.SparkMasterURL,
		"STREAMING_JAR":         e.StreamingJar,
		"EGGO_PARTITION_DIR":    e.PartitionDir,
		"CGHUB_KEY":             e.CGHubKey,
		"GTDOWNLOAD_THREADS":    strconv.Itoa(e.GTDownloadThreads),
		"EGGO_DISPATCHER":       e.Dispatcher,
	}
	for k, v := range vars {
		if v == "" {
			delete(vars, k)
		}
	}
	return vars
}

// RawDataURL — префикс сырых данных датасета.
func (e Env) RawDataURL(dataset string) string {
	return JoinURL(e.RawURL, dataset) + "/"
}

// TargetURL — префикс редакции датасета: <bucket>/<dataset>/<format>/<edition>/.
func (e Env) TargetURL(dataset, format, edition string) string {
	if format == "" {
		format = DefaultFormat
	}
	return JoinURL(e.BucketURL, dataset, format, edition) + "/"
}

// DatasetURL — префикс всех редакций датасета.
func (e Env) DatasetURL(dataset string) string {
	return JoinURL(e.BucketURL, dataset) + "/"
}

// TmpObjectURL — временный объект с заданным именем.
func (e Env) TmpObjectURL(name string) string {
	return JoinURL(e.TmpURL, name)
}

// HadoopURL переписывает s3:// URL в схему, которую понимает Hadoop.
func (e Env) HadoopURL(u string) string {
	if rest, ok := strings.CutPrefix(u, "s3://"); ok && e.HadoopS3Scheme != "" {
		return e.HadoopS3Scheme + "://" + rest
	}
	return u
}

// HadoopBin — путь к бинарнику hadoop.
func (e Env) HadoopBin() string {
	return filepath.Join(e.HadoopHome, "bin", "hadoop")
}

// AdamSubmitBin — путь к adam-submit.
func (e Env) AdamSubmitBin() string {
	return filepath.Join(e.AdamHome, "bin", "adam-submit")
}

// JoinURL соединяет части пути через "/", не трогая схему.
func JoinURL(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		out += "/" + p
	}
	return out
}
