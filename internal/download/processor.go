package download

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/telemetry"
)

// ItemResult — итог обработки одной строки partition-файла.
type ItemResult struct {
	URL         string
	Destination string
	Skipped     bool // объект уже существовал
}

// Processor обрабатывает строку partition-файла: проверка существования
// и, если объекта нет, Transfer. Общий для всех Dispatcher'ов.
type Processor struct {
	Transfer *Transfer
	Store    objstore.Store
}

// NewProcessor создаёт Processor.
func NewProcessor(transfer *Transfer, store objstore.Store) *Processor {
	return &Processor{Transfer: transfer, Store: store}
}

// Process обрабатывает одну строку для префикса destination.
//
// Повторная или дублирующая обработка безопасна: готовый объект
// пропускается, гонка двух исполнителей кончается перезаписью
// одинаковым содержимым.
func (p *Processor) Process(ctx context.Context, destination, line string) (res ItemResult, err error) {
	defer func() {
		switch {
		case err != nil:
			telemetry.FanoutItemsTotal.WithLabelValues("failed").Inc()
		case res.Skipped:
			telemetry.FanoutItemsTotal.WithLabelValues("skipped").Inc()
		default:
			telemetry.FanoutItemsTotal.WithLabelValues("transferred").Inc()
		}
	}()

	src, err := DecodeLine(line)
	if err != nil {
		return ItemResult{}, err
	}

	res = ItemResult{
		URL:         src.URL,
		Destination: config.JoinURL(destination, DestinationName(src.URL, src.Compression)),
	}

	ok, err := p.Store.Exists(ctx, res.Destination)
	if err != nil {
		if !errors.Is(err, domain.ErrTargetUnavailable) {
			err = fmt.Errorf("%w: %s: %v", domain.ErrTargetUnavailable, res.Destination, err)
		}
		return res, err
	}
	if ok {
		res.Skipped = true
		return res, nil
	}

	if err := p.Transfer.Run(ctx, src, res.Destination); err != nil {
		return res, err
	}
	return res, nil
}
