package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// Downloader fetches opportunity attachments. Network failures are treated
// as transient and retried with exponential backoff; a non-retryable HTTP
// status is terminal for that document only. A failed document is recorded
// as missing — it never fails the item it belongs to.
type Downloader struct {
	Client     *http.Client
	Dir        string // empty: probe only, keep nothing on disk
	MaxRetries int
	UserAgent  string
}

func NewDownloader(dir string, cfg FetchConfig) *Downloader {
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &Downloader{
		Client:     &http.Client{Timeout: timeout},
		Dir:        dir,
		MaxRetries: retries,
		UserAgent:  defaultUserAgent,
	}
}

// FetchAll downloads every document in place, annotating size, PDF page
// count and the missing flag. The input order is preserved.
func (d *Downloader) FetchAll(ctx context.Context, docs []RawDocument) []RawDocument {
	for i := range docs {
		if err := d.fetchOne(ctx, &docs[i]); err != nil {
			log.Printf("[download] %s: %v", docs[i].DownloadURL, err)
			docs[i].Missing = true
		}
	}
	return docs
}

func (d *Downloader) fetchOne(ctx context.Context, doc *RawDocument) error {
	body, err := d.fetchWithRetry(ctx, doc.DownloadURL)
	if err != nil {
		return err
	}

	size := int64(len(body))
	doc.FileSizeBytes = &size
	if pages, ok := probePDF(body); ok {
		doc.PageCount = pages
	}

	if d.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create download dir %s: %w", d.Dir, err)
	}
	path := filepath.Join(d.Dir, safeFileName(doc.ID, doc.FileName))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (d *Downloader) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= d.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			if err := sleepCtx(ctx, backoff+jitter); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", d.UserAgent)

		resp, err := d.Client.Do(req)
		if err != nil {
			lastErr = err
			continue // network failure: transient
		}

		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				lastErr = err
				continue
			}
			return body, nil
		}

		resp.Body.Close()
		if retryableStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		// HTTP-status failure is terminal for this document.
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// probePDF reports the page count of a PDF body. Anything that is not a
// readable PDF — including parser panics on malformed files — is a quiet
// miss.
func probePDF(body []byte) (pages int, ok bool) {
	if !bytes.HasPrefix(body, []byte("%PDF")) {
		return 0, false
	}
	defer func() {
		if recover() != nil {
			pages, ok = 0, false
		}
	}()
	reader, err := rpdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return 0, false
	}
	return reader.NumPage(), true
}

func safeFileName(id, name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." {
		name = "document"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id + "_" + name
}
