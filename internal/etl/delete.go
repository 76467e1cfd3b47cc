package etl

import (
	"context"
	"fmt"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/objstore"
	"github.com/shaiso/eggo/internal/telemetry"
)

// DeleteDataset удаляет сырые данные и все редакции датасета.
// Единственный способ сделать готовые targets снова отсутствующими.
func DeleteDataset(ctx context.Context, store objstore.Store, env config.Env, dataset string) error {
	logger := telemetry.WithDataset(telemetry.FromContext(ctx), dataset)

	for _, prefix := range []string{env.RawDataURL(dataset), env.DatasetURL(dataset)} {
		logger.Info("removing prefix", "prefix", prefix)
		if err := store.RemovePrefix(ctx, prefix); err != nil {
			return fmt.Errorf("remove %s: %w", prefix, err)
		}
	}
	return nil
}
