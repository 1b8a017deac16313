// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download walks a ranked candidate list and acquires full text
// with validation, per-URL retry, and fallback. The attempt sequence is an
// explicit state machine so the failure trail is a first-class artifact,
// not a side effect of caught errors.
package download

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/pdiddy/fulltext-engine/internal/identify"
	"github.com/pdiddy/fulltext-engine/pkg/types"
)

const (
	defaultRetryBudget = 2
	defaultBackoffBase = 500 * time.Millisecond
	defaultMinPDFSize  = 1024
)

// pdfMagic is the PDF file signature.
var pdfMagic = []byte("%PDF-")

// Manager downloads full text for one ranked candidate list at a time.
// Attempts within one acquisition are strictly sequential; concurrency
// across records is the engine's job.
type Manager struct {
	client      *http.Client
	retryBudget int
	backoffBase time.Duration
	minPDFSize  int64
	storageDir  string
	userAgent   string
	log         *zap.Logger
}

// New builds a Manager from config, applying defaults for zero values.
func New(client *http.Client, cfg types.DownloadConfig, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		client:      client,
		retryBudget: cfg.RetryBudget,
		backoffBase: cfg.BackoffBase,
		minPDFSize:  cfg.MinPDFSize,
		storageDir:  cfg.StorageDir,
		userAgent:   cfg.UserAgent,
		log:         log,
	}
	if m.retryBudget < 0 {
		m.retryBudget = 0
	} else if m.retryBudget == 0 && cfg.RetryBudget == 0 {
		m.retryBudget = defaultRetryBudget
	}
	if m.backoffBase <= 0 {
		m.backoffBase = defaultBackoffBase
	}
	if m.minPDFSize <= 0 {
		m.minPDFSize = defaultMinPDFSize
	}
	return m
}

// Acquire tries the ranked candidates in order and stops at the first
// success. A URL's transient failures are retried up to the per-URL budget
// before falling back to the next candidate; permanent failures fall back
// immediately. When the list is exhausted the outcome is failed-permanent
// and carries the full per-URL trail. The returned error is non-nil only
// when ctx was cancelled, so callers can avoid caching a misleading
// negative.
func (m *Manager) Acquire(ctx context.Context, ranking *types.Ranking) (*types.DownloadOutcome, error) {
	outcome := &types.DownloadOutcome{
		AcquisitionID: uuid.NewString(),
		RecordKey:     ranking.Key,
		Status:        types.AttemptPermanent,
	}

	for _, cand := range ranking.Candidates {
		for attempt := 1; attempt <= 1+m.retryBudget; attempt++ {
			if err := ctx.Err(); err != nil {
				return outcome, err
			}

			a := m.tryOnce(ctx, cand, attempt, ranking.Key)
			outcome.Trail = append(outcome.Trail, a.record)

			switch a.record.Status {
			case types.AttemptSucceeded:
				outcome.Status = types.AttemptSucceeded
				outcome.URL = cand.URL
				outcome.Provider = cand.Provider
				outcome.ByteSize = a.size
				outcome.SHA256 = a.sha256
				outcome.PDFPath = a.path
				outcome.CompletedAt = time.Now().UTC()
				return outcome, nil

			case types.AttemptPermanent:
				// No retry; fall back to the next candidate.
				attempt = 1 + m.retryBudget

			case types.AttemptTransient:
				if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return outcome, ctx.Err()
				}
				if attempt <= m.retryBudget {
					if err := m.backoff(ctx, attempt); err != nil {
						return outcome, err
					}
				}
			}
		}
	}

	outcome.CompletedAt = time.Now().UTC()
	if len(outcome.Trail) == 0 {
		m.log.Debug("no candidate URLs to try", zap.String("record", ranking.Key))
	} else {
		m.log.Warn("all candidate URLs exhausted",
			zap.String("record", ranking.Key),
			zap.Int("attempts", len(outcome.Trail)))
	}
	return outcome, nil
}

// attemptResult pairs the trail record with the artifacts of a success.
type attemptResult struct {
	record types.Attempt
	size   int64
	sha256 string
	path   string
}

// tryOnce runs the pending→fetching→validating portion of the state
// machine for a single attempt against one URL.
func (m *Manager) tryOnce(ctx context.Context, cand types.CandidateURL, number int, key string) attemptResult {
	res := attemptResult{record: types.Attempt{
		URL:       cand.URL,
		Provider:  cand.Provider,
		Status:    types.AttemptPending,
		Number:    number,
		Timestamp: time.Now().UTC(),
	}}
	fail := func(status types.AttemptStatus, detail string) attemptResult {
		res.record.Status = status
		res.record.Error = detail
		return res
	}

	res.record.Status = types.AttemptFetching
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cand.URL, nil)
	if err != nil {
		return fail(types.AttemptPermanent, fmt.Sprintf("creating request: %v", err))
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := m.client.Do(req)
	if err != nil {
		// Network-level failures (timeout, reset, DNS) are transient.
		return fail(types.AttemptTransient, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status, detail := classifyHTTP(resp.StatusCode)
		return fail(status, detail)
	}

	res.record.Status = types.AttemptValidating
	size, digest, path, verr := m.saveAndValidate(resp.Body, key)
	if verr != nil {
		if verr.transient {
			return fail(types.AttemptTransient, verr.detail)
		}
		return fail(types.AttemptPermanent, verr.detail)
	}

	res.record.Status = types.AttemptSucceeded
	res.size = size
	res.sha256 = digest
	res.path = path
	return res
}

// classifyHTTP maps a non-200 response onto the failure taxonomy:
// rate-limit and server-side statuses are transient, auth and not-found
// are permanent.
func classifyHTTP(status int) (types.AttemptStatus, string) {
	detail := fmt.Sprintf("HTTP %d", status)
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= 500:
		return types.AttemptTransient, detail
	default:
		return types.AttemptPermanent, detail
	}
}

// validationError distinguishes a truncated stream (transient) from bad
// content (permanent).
type validationError struct {
	detail    string
	transient bool
}

// saveAndValidate streams the body into a temp file while hashing, then
// validates signature, plausible size, and PDF structure before renaming
// into place.
func (m *Manager) saveAndValidate(body io.Reader, key string) (int64, string, string, *validationError) {
	if err := os.MkdirAll(m.storageDir, 0o755); err != nil {
		return 0, "", "", &validationError{detail: fmt.Sprintf("creating storage directory: %v", err)}
	}

	tmpFile, err := os.CreateTemp(m.storageDir, ".fulltext-*.tmp")
	if err != nil {
		return 0, "", "", &validationError{detail: fmt.Sprintf("creating temp file: %v", err)}
	}
	tmpPath := tmpFile.Name()
	discard := func() { os.Remove(tmpPath) }

	hasher := sha256.New()
	size, copyErr := io.Copy(tmpFile, io.TeeReader(body, hasher))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		discard()
		return 0, "", "", &validationError{detail: fmt.Sprintf("reading response: %v", copyErr), transient: true}
	}
	if closeErr != nil {
		discard()
		return 0, "", "", &validationError{detail: fmt.Sprintf("closing temp file: %v", closeErr)}
	}

	if size < m.minPDFSize {
		discard()
		return 0, "", "", &validationError{detail: fmt.Sprintf("implausibly small response (%d bytes)", size)}
	}

	head := make([]byte, len(pdfMagic))
	f, err := os.Open(tmpPath)
	if err == nil {
		_, err = io.ReadFull(f, head)
		f.Close()
	}
	if err != nil || string(head) != string(pdfMagic) {
		discard()
		return 0, "", "", &validationError{detail: "missing PDF signature"}
	}

	if err := checkPDFStructure(tmpPath); err != nil {
		discard()
		return 0, "", "", &validationError{detail: fmt.Sprintf("corrupt PDF: %v", err)}
	}

	destPath := filepath.Join(m.storageDir, identify.Slug(key)+".pdf")
	if err := os.Rename(tmpPath, destPath); err != nil {
		discard()
		return 0, "", "", &validationError{detail: fmt.Sprintf("renaming temp file: %v", err)}
	}

	return size, fmt.Sprintf("%x", hasher.Sum(nil)), destPath, nil
}

// checkPDFStructure parses the file's cross-reference structure. An HTML
// error page with a forged %PDF- prefix fails here.
func checkPDFStructure(path string) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if r.NumPage() < 1 {
		return errors.New("no pages")
	}
	return nil
}

// backoff sleeps exponentially: base, 2*base, 4*base... The wait is
// ctx-aware so cancellation interrupts it.
func (m *Manager) backoff(ctx context.Context, attempt int) error {
	delay := m.backoffBase << (attempt - 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
