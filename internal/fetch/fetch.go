// Package fetch — получение исходного файла во временную директорию.
//
// Набор механизмов закрыт: HTTP(S) и CGHub (gtdownload). Механизм
// выбирается чистой функцией Classify по схеме URL.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shaiso/eggo/internal/command"
	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/domain"
)

// Kind — механизм получения.
type Kind string

const (
	KindHTTP  Kind = "http"
	KindCGHub Kind = "cghub"
)

// Classify выбирает механизм по схеме URL.
func Classify(rawURL string) (Kind, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", domain.ErrUnsupportedSource, rawURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return KindHTTP, nil
	case "cghub":
		return KindCGHub, nil
	default:
		return "", fmt.Errorf("%w: %q (expected http(s) or cghub url)", domain.ErrUnsupportedSource, rawURL)
	}
}

// Fetcher загружает источник в dir и возвращает путь к файлу.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dir string) (string, error)
}

// Fetchers — по одному Fetcher на каждый механизм.
type Fetchers struct {
	HTTP  Fetcher
	CGHub Fetcher
}

// NewFetchers создаёт стандартный набор механизмов.
func NewFetchers(env config.Env, runner command.Runner, client *http.Client) Fetchers {
	return Fetchers{
		HTTP: &HTTPFetcher{Client: client},
		CGHub: &CGHubFetcher{
			Runner:  runner,
			Key:     env.CGHubKey,
			Threads: env.GTDownloadThreads,
		},
	}
}

// For возвращает Fetcher для URL.
func (f Fetchers) For(rawURL string) (Fetcher, error) {
	kind, err := Classify(rawURL)
	if err != nil {
		return nil, err
	}

	var fetcher Fetcher
	switch kind {
	case KindHTTP:
		fetcher = f.HTTP
	case KindCGHub:
		fetcher = f.CGHub
	}
	if fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured for %s", domain.ErrUnsupportedSource, kind)
	}
	return fetcher, nil
}
