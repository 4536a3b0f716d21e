// Package acquire fetches screenshot bytes from URLs, S3 objects, local files or uploads.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/common"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

var (
	ErrTooLarge    = errors.New("image exceeds size limit")
	ErrNotImage    = errors.New("content is not an image")
	ErrUnsupported = errors.New("unsupported image reference")
)

// Acquirer is the image-acquisition collaborator.
type Acquirer interface {
	Acquire(ctx context.Context, ref entity.ImageRef) ([]byte, error)
}

type Config struct {
	Timeout       time.Duration
	MaxBytes      int64
	AllowFileRefs bool
	S3Region      string
	UserAgent     string
}

// Dispatcher routes a reference to the fetcher for its scheme. Every failure is
// returned as an acquisition error naming the reference.
type Dispatcher struct {
	cfg    Config
	http   *HTTPFetcher
	logger *slog.Logger

	s3Mu  sync.Mutex
	s3    ObjectGetter
	newS3 func(ctx context.Context, region string) (ObjectGetter, error)
}

func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = constants.MaxImageBytesDefault
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Dispatcher{
		cfg:    cfg,
		http:   NewHTTPFetcher(&http.Client{Timeout: cfg.Timeout}, cfg.MaxBytes, cfg.UserAgent),
		logger: logger,
		newS3: func(ctx context.Context, region string) (ObjectGetter, error) {
			return NewS3Client(ctx, region)
		},
	}
}

// WithS3Client injects the object getter used for s3:// references.
func (d *Dispatcher) WithS3Client(c ObjectGetter) *Dispatcher {
	d.s3Mu.Lock()
	defer d.s3Mu.Unlock()
	d.s3 = c
	return d
}

func (d *Dispatcher) Acquire(ctx context.Context, ref entity.ImageRef) ([]byte, error) {
	start := time.Now()
	data, err := d.acquire(ctx, ref)
	if err == nil {
		err = checkImage(data, d.cfg.MaxBytes)
	}
	if err != nil {
		d.logger.Warn("acquire.failed", "image_ref", ref.String(), "error", err)
		return nil, common.NewAcquisitionError(ref.String(), err)
	}
	d.logger.Debug("acquire.ok", "image_ref", ref.String(), "bytes", len(data), "elapsed_ms", time.Since(start).Milliseconds())
	return data, nil
}

func (d *Dispatcher) acquire(ctx context.Context, ref entity.ImageRef) ([]byte, error) {
	if ref.IsUpload() {
		return ref.Data, nil
	}
	raw := strings.TrimSpace(ref.URL)
	if raw == "" {
		return nil, ErrUnsupported
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return d.http.Fetch(ctx, raw)
	case "s3":
		client, err := d.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		return GetS3Object(ctx, client, u.Host, strings.TrimPrefix(u.Path, "/"), d.cfg.MaxBytes)
	case "file", "":
		if !d.cfg.AllowFileRefs {
			return nil, fmt.Errorf("%w: local files are disabled", ErrUnsupported)
		}
		path := raw
		if u.Scheme == "file" {
			path = u.Path
		}
		return readFile(path, d.cfg.MaxBytes)
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
}

func (d *Dispatcher) s3Client(ctx context.Context) (ObjectGetter, error) {
	d.s3Mu.Lock()
	defer d.s3Mu.Unlock()
	if d.s3 != nil {
		return d.s3, nil
	}
	// Only a working client is kept; a failed load is retried on the next reference.
	client, err := d.newS3(ctx, d.cfg.S3Region)
	if err != nil {
		return nil, err
	}
	d.s3 = client
	return client, nil
}

func readFile(path string, max int64) ([]byte, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if st.Size() > max {
		return nil, ErrTooLarge
	}
	return os.ReadFile(path)
}

// checkImage rejects empty, oversized or non-image payloads by sniffing the content.
func checkImage(data []byte, max int64) error {
	if len(data) == 0 {
		return errors.New("empty image")
	}
	if int64(len(data)) > max {
		return ErrTooLarge
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: detected %s", ErrNotImage, ct)
	}
	return nil
}
