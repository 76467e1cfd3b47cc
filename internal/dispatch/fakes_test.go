package dispatch

import (
	"context"
	"os"
)

type fetcherFunc func(ctx context.Context, rawURL, dir string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	return f(ctx, rawURL, dir)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
