package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwitter-backend/internal/shared/apperrors"
)

func TestCheckSizeRejectsOversized(t *testing.T) {
	err := CheckSize(2<<20+1, 2<<20)
	require.Error(t, err)
	assert.True(t, apperrors.IsImageTooLarge(err))
}

func TestCheckSizeAllowsAtCeiling(t *testing.T) {
	assert.NoError(t, CheckSize(1<<20, 1<<20))
	assert.NoError(t, CheckSize(0, 1<<20))
}

func TestProgressReaderMonotonicAndTerminal(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 1000)
	var reported []float64
	pr := newProgressReader(context.Background(), bytes.NewReader(data), int64(len(data)), func(pct float64) {
		reported = append(reported, pct)
	})

	// Drain in small chunks, the way a transport would.
	buf := make([]byte, 64)
	for {
		_, err := pr.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.NotEmpty(t, reported)
	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i], reported[i-1])
	}
	assert.Equal(t, float64(100), reported[len(reported)-1])
}

func TestProgressReaderSilentAfterCancel(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 1000)
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	pr := newProgressReader(ctx, bytes.NewReader(data), int64(len(data)), func(float64) {
		calls++
	})

	buf := make([]byte, 100)
	_, err := pr.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	cancel()

	_, _ = pr.Read(buf)
	_, _ = pr.Read(buf)
	assert.Equal(t, 1, calls, "no progress after cancellation")
}

func TestProgressReaderNilCallback(t *testing.T) {
	data := []byte("no panic")
	pr := newProgressReader(context.Background(), bytes.NewReader(data), int64(len(data)), nil)

	out, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
