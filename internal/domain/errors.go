package domain

import "errors"

// Ошибки конфигурации. Фатальные: повторный запуск не поможет.
var (
	// ErrUnsupportedSource — схема URL источника не поддерживается.
	ErrUnsupportedSource = errors.New("unsupported source")

	// ErrUnsupportedCompression — тип сжатия не поддерживается.
	ErrUnsupportedCompression = errors.New("unsupported compression")

	// ErrUnsupportedFormat — формат датасета не принимается командой конвертации.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCyclicDependency — цикл в зависимостях задач (ошибка в построении графа).
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrMisconfigured — неизвестное имя конвейера, не заданный параметр окружения.
	ErrMisconfigured = errors.New("misconfigured")
)

// Ошибки выполнения. Исправляются повторным вызовом прохода.
var (
	// ErrExternalCommandFailed — внешняя команда вернула ненулевой код.
	ErrExternalCommandFailed = errors.New("external command failed")

	// ErrTargetUnavailable — проверка существования не удалась (сеть, авторизация).
	ErrTargetUnavailable = errors.New("target unavailable")

	// ErrIncompleteOutput — action завершился, но файловый выход не появился.
	ErrIncompleteOutput = errors.New("incomplete output")

	// ErrIncompleteFanout — не все элементы partition дошли до назначения.
	ErrIncompleteFanout = errors.New("incomplete fan-out")
)

// IsFatal сообщает, что ошибка относится к конфигурации или построению графа
// и повторный вызов прохода её не исправит.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnsupportedSource) ||
		errors.Is(err, ErrUnsupportedCompression) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrCyclicDependency) ||
		errors.Is(err, ErrMisconfigured)
}
