package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/fetch"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/telemetry"
)

// ScratchPrefix — префикс приватных scratch-директорий.
const ScratchPrefix = "tmp_eggo_"

// KindUnknown — метка метрики загрузок для URL, не прошедшего Classify.
const KindUnknown = "unknown"

// Transfer переносит один источник в объект назначения.
type Transfer struct {
	env      config.Env
	store    objstore.Store
	fetchers fetch.Fetchers
	logger   *slog.Logger
}

// NewTransfer создаёт Transfer.
func NewTransfer(env config.Env, store objstore.Store, fetchers fetch.Fetchers, logger *slog.Logger) *Transfer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transfer{env: env, store: store, fetchers: fetchers, logger: logger}
}

// Run скачивает src и публикует его по адресу destination.
//
// Порядок: приватная scratch-директория → получение → распаковка →
// загрузка во временный объект → move в destination. Scratch удаляется
// при любом исходе.
func (t *Transfer) Run(ctx context.Context, src config.SourceDescriptor, destination string) (err error) {
	kind := KindUnknown
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		telemetry.DownloadsTotal.WithLabelValues(kind, result).Inc()
	}()

	k, err := fetch.Classify(src.URL)
	if err != nil {
		return err
	}
	kind = string(k)

	fetcher, err := t.fetchers.For(src.URL)
	if err != nil {
		return err
	}
	if src.Compression {
		if err := checkCompression(src.URL); err != nil {
			return err
		}
	}

	logger := telemetry.FromContextOr(ctx, t.logger).With("source", src.URL, "destination", destination)

	if err := os.MkdirAll(t.env.EphemeralMount, 0o755); err != nil {
		return fmt.Errorf("create ephemeral mount %s: %w", t.env.EphemeralMount, err)
	}
	scratch, err := os.MkdirTemp(t.env.EphemeralMount, ScratchPrefix)
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(scratch); rerr != nil {
			logger.Warn("failed to remove scratch dir", "dir", scratch, "error", rerr)
		}
	}()

	path, err := fetcher.Fetch(telemetry.WithLogger(ctx, logger), src.URL, scratch)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: fetched artifact %s: %v", domain.ErrIncompleteOutput, filepath.Base(path), err)
	}

	if src.Compression {
		if path, err = fetch.Decompress(path); err != nil {
			return err
		}
	}

	tmpURL := t.env.TmpObjectURL(uuid.NewString())
	if err := t.store.PutFile(ctx, tmpURL, path); err != nil {
		return fmt.Errorf("upload to %s: %w", tmpURL, err)
	}
	if err := t.store.Move(ctx, tmpURL, destination); err != nil {
		return fmt.Errorf("publish %s: %w", destination, err)
	}

	logger.Info("source transferred")
	return nil
}

// checkCompression отвергает неподдерживаемое сжатие до скачивания.
func checkCompression(rawURL string) error {
	name, err := fetch.FileName(rawURL)
	if err != nil {
		return err
	}
	if ext := filepath.Ext(name); ext != ".gz" {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedCompression, ext)
	}
	return nil
}
