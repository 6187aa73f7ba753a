package blob

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendingPress/internal/config"
)

type recordedPut struct {
	key         string
	data        []byte
	contentType string
}

func newFakeStore(err error) (*MinioStore, *[]recordedPut) {
	var puts []recordedPut
	store := &MinioStore{
		bucket:  "cards",
		baseURL: "https://cdn.example/cards",
		put: func(_ context.Context, key string, data []byte, contentType string) error {
			puts = append(puts, recordedPut{key: key, data: data, contentType: contentType})
			return err
		},
	}
	return store, &puts
}

func TestPut(t *testing.T) {
	t.Parallel()

	store, puts := newFakeStore(nil)

	url, err := store.Put(context.Background(), "/cards/2026-10-19/a-b.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/cards/cards/2026-10-19/a-b.png", url)
	require.Len(t, *puts, 1)
	assert.Equal(t, recordedPut{key: "cards/2026-10-19/a-b.png", data: []byte("png"), contentType: "image/png"}, (*puts)[0])
}

func TestPutErrors(t *testing.T) {
	t.Parallel()

	store, _ := newFakeStore(errors.New("access denied"))
	_, err := store.Put(context.Background(), "x.svg", nil, "image/svg+xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	_, err = store.Put(context.Background(), "/", nil, "image/svg+xml")
	require.Error(t, err)
}

func TestNewRequiresSettings(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.BlobConfig{Endpoint: "http://localhost:9000", Bucket: "b"})
	require.Error(t, err)
}
