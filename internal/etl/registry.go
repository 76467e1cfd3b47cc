package etl

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/shaiso/eggo/internal/domain"
)

// ErrUnknownPipeline — конвейер с таким именем не зарегистрирован.
var ErrUnknownPipeline = fmt.Errorf("%w: unknown pipeline", domain.ErrMisconfigured)

// Pipeline — конвертация сырых данных в ADAM одной командой.
type Pipeline struct {
	// Name — имя в CLI (vcf2adam, bam2adam).
	Name string `json:"name"`

	// AdamCommand — подкоманда adam-submit для стадии basic.
	AdamCommand string `json:"adam_command"`

	// Formats — форматы источников, которые принимает AdamCommand.
	Formats []string `json:"formats"`
}

// Accepts проверяет, принимает ли конвейер формат.
func (p Pipeline) Accepts(format string) bool {
	return slices.Contains(p.Formats, strings.ToLower(format))
}

// Зарегистрированные конвейеры.
var (
	VCF2ADAM = Pipeline{Name: "vcf2adam", AdamCommand: "vcf2adam", Formats: []string{"vcf"}}
	BAM2ADAM = Pipeline{Name: "bam2adam", AdamCommand: "transform", Formats: []string{"sam", "bam"}}
)

var registry = map[string]Pipeline{
	VCF2ADAM.Name: VCF2ADAM,
	BAM2ADAM.Name: BAM2ADAM,
}

// Lookup возвращает конвейер по имени.
func Lookup(name string) (Pipeline, error) {
	p, ok := registry[strings.ToLower(name)]
	if !ok {
		return Pipeline{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPipeline, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// ForFormat возвращает конвейер, принимающий формат.
func ForFormat(format string) (Pipeline, error) {
	for _, name := range Names() {
		if p := registry[name]; p.Accepts(format) {
			return p, nil
		}
	}
	return Pipeline{}, fmt.Errorf("%w: no pipeline accepts format %q", ErrUnknownPipeline, format)
}

// Names — имена зарегистрированных конвейеров по алфавиту.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
