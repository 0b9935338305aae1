package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadoba-control-go/internal/models"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 123456789, time.UTC)
	assert.Equal(t, "cam12_20250304_050607_123456.jpg", FileName(12, ts))
}

func TestCreateWritesOneFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	calls := 0
	annotate := func(frame []byte, dets []models.Detection, quality int) ([]byte, error) {
		calls++
		assert.Len(t, dets, 2)
		return append([]byte("annotated:"), frame...), nil
	}
	svc := NewService(annotate, store, 90, zerolog.Nop())

	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	ref, err := svc.Create(context.Background(), 1, ts, []byte("img"), []models.Detection{{Class: "person"}, {Class: "tiger"}})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, filepath.Join(dir, "cam1_20250304_050607_000000.jpg"), ref)

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "annotated:img", string(data))
}

func TestCreateSkipsEmptyFrame(t *testing.T) {
	svc := NewService(func([]byte, []models.Detection, int) ([]byte, error) {
		t.Fatal("annotator should not run without detections")
		return nil, nil
	}, nil, 90, zerolog.Nop())

	ref, err := svc.Create(context.Background(), 1, time.Now(), []byte("img"), nil)
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestCreatePropagatesAnnotatorError(t *testing.T) {
	svc := NewService(func([]byte, []models.Detection, int) ([]byte, error) {
		return nil, errors.New("bad image")
	}, nil, 90, zerolog.Nop())

	_, err := svc.Create(context.Background(), 1, time.Now(), []byte("img"), []models.Detection{{Class: "person"}})
	assert.ErrorContains(t, err, "bad image")
}
