package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/shaiso/eggo/internal/domain"
	"github.com/shaiso/eggo/internal/telemetry"
)

// HTTPFetcher скачивает файл по HTTP(S), следуя редиректам.
// Имя файла — последний сегмент пути URL.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch скачивает rawURL в dir.
//
// Отмена ctx не прерывает начатую загрузку.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, name)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrUnsupportedSource, err)
	}

	telemetry.FromContext(ctx).Info("downloading over http", "url", rawURL, "path", dst)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: GET %s: %v", domain.ErrExternalCommandFailed, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: GET %s: HTTP %d", domain.ErrExternalCommandFailed, rawURL, resp.StatusCode)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("%w: read body of %s: %v", domain.ErrExternalCommandFailed, rawURL, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}

	return dst, nil
}

// FileName — имя файла источника (последний сегмент пути).
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", domain.ErrUnsupportedSource, rawURL, err)
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("%w: %q has no file name", domain.ErrUnsupportedSource, rawURL)
	}
	return name, nil
}
