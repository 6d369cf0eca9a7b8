// Package storage implements the image upload pipeline: client-side size
// ceilings checked before any transfer, progress reporting while bytes
// move, and durable public URLs on completion.
package storage

import (
	"context"
	"io"

	"qwitter-backend/internal/shared/apperrors"
)

// ProgressFunc receives upload progress as a percentage. Values are
// monotonically non-decreasing; it is never invoked after the upload's
// context is cancelled.
type ProgressFunc func(percent float64)

// ObjectStorage is the object storage contract the dispatchers depend on.
type ObjectStorage interface {
	// Upload streams an object and returns its public URL. Progress may
	// be nil when the caller does not care.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress ProgressFunc) (string, error)

	// Remove deletes an object by key (used by the cleanup worker).
	Remove(ctx context.Context, key string) error

	// KeyFromURL recovers the object key from a public URL produced by
	// Upload, or errors when the URL is not in managed storage.
	KeyFromURL(rawURL string) (string, error)
}

// CheckSize validates a file size against its ceiling before any transfer
// starts. Oversized files are rejected eagerly, with no network round-trip
// and no progress callback.
func CheckSize(size, limit int64) error {
	if size > limit {
		return apperrors.ImageTooLarge(limit)
	}
	return nil
}

// progressReader wraps the upload body, translating bytes read by the
// transport into monotonic percentage callbacks.
type progressReader struct {
	ctx        context.Context
	r          io.Reader
	total      int64
	read       int64
	lastPct    float64
	onProgress ProgressFunc
}

func newProgressReader(ctx context.Context, r io.Reader, total int64, onProgress ProgressFunc) *progressReader {
	return &progressReader{ctx: ctx, r: r, total: total, onProgress: onProgress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.onProgress == nil || p.total <= 0 {
		return
	}
	// A cancelled transfer must not keep reporting.
	if p.ctx != nil && p.ctx.Err() != nil {
		return
	}

	pct := float64(p.read) / float64(p.total) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < p.lastPct {
		return
	}
	p.lastPct = pct
	p.onProgress(pct)
}
