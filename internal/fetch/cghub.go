package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
)

// CGHubFetcher скачивает анализ CGHub через gtdownload.
//
// URL: cghub://<analysis-id>/<file>. gtdownload кладёт файлы анализа
// в <dir>/<analysis-id>/, оттуда берётся <file>.
type CGHubFetcher struct {
	Runner  command.Runner
	Binary  string // по умолчанию gtdownload из PATH
	Key     string // путь или URL ключа; пусто — публичный ключ
	Threads int
}

// ParseCGHubURL извлекает analysis ID и имя файла.
func ParseCGHubURL(rawURL string) (analysisID, file string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "cghub" {
		return "", "", fmt.Errorf("%w: %q is not a cghub url", domain.ErrUnsupportedSource, rawURL)
	}

	file = strings.Trim(u.Path, "/")
	if u.Host == "" || file == "" || strings.Contains(file, "/") {
		return "", "", fmt.Errorf("%w: %q (expected cghub://<analysis-id>/<file>)", domain.ErrUnsupportedSource, rawURL)
	}
	return u.Host, file, nil
}

// Fetch запускает gtdownload и возвращает путь к файлу анализа.
func (f *CGHubFetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	analysisID, file, err := ParseCGHubURL(rawURL)
	if err != nil {
		return "", err
	}

	bin := f.Binary
	if bin == "" {
		bin = "gtdownload"
	}
	key := f.Key
	if key == "" {
		key = config.CGHubPublicKey
	}
	threads := f.Threads
	if threads <= 0 {
		threads = 8
	}

	err = f.Runner.Run(ctx, command.Cmd{
		Name: bin,
		Args: []string{
			"-c", key,
			"-p", dir,
			"--max-children", strconv.Itoa(threads),
			"-v", analysisID,
		},
	})
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, analysisID, file), nil
}
