package dispatch

import (
	"errors"
	"fmt"

	"github.com/shaiso/eggo/internal/domain"
)

// Ошибки диспетчеров.
var (
	// ErrNoStreamingJar — не задан STREAMING_JAR.
	ErrNoStreamingJar = fmt.Errorf("%w: streaming jar is not configured", domain.ErrMisconfigured)

	// ErrItemsFailed — часть строк обработана с ошибкой.
	ErrItemsFailed = errors.New("partition items failed")

	// ErrReplyQueueLost — reply-очередь пропала вместе с соединением.
	ErrReplyQueueLost = errors.New("reply queue lost")
)
