package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/eggo/internal/config"
	"github.com/shaiso/eggo/internal/download"
	"github.com/shaiso/eggo/internal/fetch"
	"github.com/shaiso/eggo/internal/mq"
	"github.com/shaiso/eggo/internal/objstore"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fetcherFunc func(ctx context.Context, rawURL, dir string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	return f(ctx, rawURL, dir)
}

// fakeReplier запоминает отправленные ответы.
type fakeReplier struct {
	mu      sync.Mutex
	replies map[mq.Queue][]mq.ItemCompletedPayload
	err     error
}

func (r *fakeReplier) PublishItemCompleted(_ context.Context, replyTo mq.Queue, p mq.ItemCompletedPayload) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replies == nil {
		r.replies = make(map[mq.Queue][]mq.ItemCompletedPayload)
	}
	r.replies[replyTo] = append(r.replies[replyTo], p)
	return nil
}

type setup struct {
	env       config.Env
	store     objstore.Store
	processor *download.Processor
	fetches   int
}

func newSetup(t *testing.T) *setup {
	t.Helper()

	dir := t.TempDir()
	root := "file://" + filepath.ToSlash(dir)
	s := &setup{
		env: config.Env{
			BucketURL:      root + "/bucket",
			RawURL:         root + "/bucket/raw",
			TmpURL:         root + "/bucket/tmp",
			EphemeralMount: filepath.Join(dir, "mnt"),
		},
		store: objstore.NewFileStore(),
	}

	fetchers := fetch.Fetchers{HTTP: fetcherFunc(func(_ context.Context, rawURL, scratch string) (string, error) {
		s.fetches++
		if strings.HasSuffix(rawURL, "bad.vcf") {
			return "", errors.New("connection reset")
		}
		p := filepath.Join(scratch, filepath.Base(rawURL))
		return p, os.WriteFile(p, []byte("data:"+rawURL), 0o644)
	})}
	transfer := download.NewTransfer(s.env, s.store, fetchers, discard)
	s.processor = download.NewProcessor(transfer, s.store)
	return s
}

func itemDelivery(t *testing.T, p mq.ItemReadyPayload, replyTo string) *mq.Delivery {
	t.Helper()
	return &mq.Delivery{
		Message: *mq.NewMessage(mq.MessageTypeItemReady, p),
		Raw:     amqp.Delivery{ReplyTo: replyTo},
	}
}

func line(t *testing.T, url string) string {
	t.Helper()
	l, err := download.EncodeLine(config.SourceDescriptor{URL: url})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestHandleItemReady(t *testing.T) {
	s := newSetup(t)
	replier := &fakeReplier{}
	w := New(Config{Processor: s.processor, Publisher: replier, Logger: discard})
	dest := s.env.RawDataURL("demo")

	tests := []struct {
		name   string
		url    string
		status string
	}{
		{name: "transferred", url: "http://x/a.vcf", status: mq.ItemStatusSucceeded},
		{name: "already present", url: "http://x/a.vcf", status: mq.ItemStatusSkipped},
		{name: "fetch failed", url: "http://x/bad.vcf", status: mq.ItemStatusFailed},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := itemDelivery(t, mq.ItemReadyPayload{
				JobID:       "job-1",
				Index:       i,
				Destination: dest,
				Line:        line(t, tt.url),
			}, "reply-q")

			// ошибка загрузки уходит в ответ, а не в nack
			if err := w.handleItemReady(context.Background(), d); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			got := replier.replies["reply-q"]
			last := got[len(got)-1]
			if last.Status != tt.status {
				t.Errorf("expected %s, got %s", tt.status, last.Status)
			}
			if last.JobID != "job-1" || last.Index != i || last.URL != tt.url {
				t.Errorf("unexpected reply %+v", last)
			}
			if tt.status == mq.ItemStatusFailed && last.Error == "" {
				t.Error("failed reply must carry the error")
			}
		})
	}

	if s.fetches != 2 {
		t.Errorf("expected 2 fetches, got %d", s.fetches)
	}
}

func TestHandleItemReady_BadPayloadRejected(t *testing.T) {
	s := newSetup(t)
	w := New(Config{Processor: s.processor, Publisher: &fakeReplier{}, Logger: discard})

	d := &mq.Delivery{Message: mq.Message{Type: mq.MessageTypeItemReady, Payload: "not an object"}}
	if err := w.handleItemReady(context.Background(), d); !errors.Is(err, mq.ErrReject) {
		t.Errorf("expected ErrReject, got %v", err)
	}
}

func TestHandleItemReady_PublishFailureRequeues(t *testing.T) {
	s := newSetup(t)
	boom := errors.New("channel closed")
	w := New(Config{Processor: s.processor, Publisher: &fakeReplier{err: boom}, Logger: discard})

	d := itemDelivery(t, mq.ItemReadyPayload{
		JobID:       "job-1",
		Destination: s.env.RawDataURL("demo"),
		Line:        line(t, "http://x/a.vcf"),
	}, "reply-q")

	err := w.handleItemReady(context.Background(), d)
	if !errors.Is(err, boom) || errors.Is(err, mq.ErrReject) {
		t.Errorf("expected requeue error wrapping publish failure, got %v", err)
	}
}

func TestHandleItemReady_NoReplyQueue(t *testing.T) {
	s := newSetup(t)
	replier := &fakeReplier{}
	w := New(Config{Processor: s.processor, Publisher: replier, Logger: discard})

	d := itemDelivery(t, mq.ItemReadyPayload{
		JobID:       "job-1",
		Destination: s.env.RawDataURL("demo"),
		Line:        line(t, "http://x/a.vcf"),
	}, "")

	if err := w.handleItemReady(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(replier.replies) != 0 {
		t.Error("no reply expected without ReplyTo")
	}
}

func TestRunMapper(t *testing.T) {
	s := newSetup(t)
	dest := s.env.RawDataURL("demo")

	in := "0\t" + line(t, "http://x/a.vcf") + "\n\n" +
		"42\t" + line(t, "http://x/b.vcf") + "\n"

	var out bytes.Buffer
	if err := RunMapper(context.Background(), strings.NewReader(in), &out, s.processor, dest); err != nil {
		t.Fatalf("mapper: %v", err)
	}

	want := "http://x/a.vcf\t1\nhttp://x/b.vcf\t1\n"
	if out.String() != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", out.String(), want)
	}

	for _, u := range []string{"http://x/a.vcf", "http://x/b.vcf"} {
		obj := config.JoinURL(dest, download.DestinationName(u, false))
		if ok, _ := s.store.Exists(context.Background(), obj); !ok {
			t.Errorf("%s must be transferred", obj)
		}
	}
}

func TestRunMapper_FailsOnItem(t *testing.T) {
	s := newSetup(t)

	in := line(t, "http://x/bad.vcf") + "\n"
	err := RunMapper(context.Background(), strings.NewReader(in), io.Discard, s.processor, s.env.RawDataURL("demo"))
	if !errors.Is(err, ErrMapperItemFailed) {
		t.Errorf("expected ErrMapperItemFailed, got %v", err)
	}
}

func TestWorker_StartWithoutConnection(t *testing.T) {
	w := New(Config{Logger: discard})
	if err := w.Start(context.Background()); !errors.Is(err, ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
}
