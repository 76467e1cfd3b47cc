package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Редакции (editions) конвертированных данных.
const (
	EditionBasic = "basic"
	EditionFlat  = "flat"
)

// Ошибки валидации конфигурации.
var (
	// ErrEmptyName — не задано имя датасета.
	ErrEmptyName = errors.New("dataset name is empty")

	// ErrNoSources — список источников пуст.
	ErrNoSources = errors.New("dataset has no sources")

	// ErrEmptyURL — источник без URL.
	ErrEmptyURL = errors.New("source has empty url")

	// ErrMixedFormats — источники одного датасета в разных форматах.
	ErrMixedFormats = errors.New("sources have different formats")

	// ErrUnknownEdition — запрошена неизвестная редакция.
	ErrUnknownEdition = errors.New("unknown edition")
)

// SourceDescriptor — один исходный файл датасета.
type SourceDescriptor struct {
	// URL — http(s):// или cghub://<analysis-id>/<file>.
	URL string `json:"url"`

	// Compression — файл нужно распаковать после скачивания.
	Compression bool `json:"compression"`

	// Format — формат файла (vcf, bam, sam).
	Format string `json:"format"`
}

// PipelineConfig — конфигурация одного датасета.
type PipelineConfig struct {
	// Name — имя датасета, часть всех путей в object store.
	Name string `json:"name"`

	// Sources — упорядоченный список исходных файлов.
	Sources []SourceDescriptor `json:"sources"`

	// Editions — запрошенные редакции, подмножество {basic, flat}.
	Editions []string `json:"editions"`
}

// Validate проверяет конфигурацию и нормализует её: форматы приводятся
// к нижнему регистру, пустой список редакций заменяется на [basic].
func (c *PipelineConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	format := strings.ToLower(c.Sources[0].Format)
	for i := range c.Sources {
		src := &c.Sources[i]
		if strings.TrimSpace(src.URL) == "" {
			return fmt.Errorf("source %d: %w", i, ErrEmptyURL)
		}
		src.Format = strings.ToLower(src.Format)
		if src.Format != format {
			return fmt.Errorf("%w: %q and %q", ErrMixedFormats, format, src.Format)
		}
	}

	if len(c.Editions) == 0 {
		c.Editions = []string{EditionBasic}
	}
	for _, e := range c.Editions {
		if e != EditionBasic && e != EditionFlat {
			return fmt.Errorf("%w: %q", ErrUnknownEdition, e)
		}
	}

	return nil
}

// Format возвращает формат датасета (все источники в одном формате).
func (c *PipelineConfig) Format() string {
	if len(c.Sources) == 0 {
		return ""
	}
	return strings.ToLower(c.Sources[0].Format)
}

// HasEdition проверяет, запрошена ли редакция.
func (c *PipelineConfig) HasEdition(edition string) bool {
	return slices.Contains(c.Editions, edition)
}
