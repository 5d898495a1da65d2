package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kwangun/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverModernc, filepath.Join(t.TempDir(), "readings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dong() types.Record {
	return types.FromStrings(map[string]string{
		"字": "東", "纽": "端", "呼": "開", "等": "一", "韵": "東", "声": "平",
		"组": "端", "摄": "通", "反切": "德紅",
	})
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, DriverModernc, s.Driver())
	assert.FileExists(t, s.Path())

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOpenDefaultsToModernc(t *testing.T) {
	s, err := Open("", ":memory:")
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, DriverModernc, s.Driver())

	_, err = s.Put(context.Background(), dong())
	require.NoError(t, err)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("postgres", ":memory:")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDriver))
}

func TestOpenMattnDriver(t *testing.T) {
	s, err := Open(DriverMattn, filepath.Join(t.TempDir(), "cgo.db"))
	if err != nil {
		// go-sqlite3 needs cgo; without it the driver refuses to connect.
		t.Skipf("sqlite3 driver unavailable: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	put, err := s.Put(ctx, dong())
	require.NoError(t, err)
	got, err := s.Get(ctx, put.ID)
	require.NoError(t, err)
	assert.True(t, dong().Equal(got.Record))
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	put, err := s.Put(ctx, dong())
	require.NoError(t, err)
	_, err = uuid.Parse(put.ID)
	require.NoError(t, err)
	assert.Equal(t, "東", put.Char())

	got, err := s.Get(ctx, put.ID)
	require.NoError(t, err)
	assert.Equal(t, put.ID, got.ID)
	assert.True(t, dong().Equal(got.Record), "got %s", got.Record)
	assert.True(t, put.CreatedAt.Equal(got.CreatedAt))
}

func TestPutDropsUnknownFeaturesAndEmptyValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := types.FromStrings(map[string]string{"字": "一", "纽": "影", "備註": "x"})
	put, err := s.Put(ctx, r)
	require.NoError(t, err)

	got, err := s.Get(ctx, put.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Record.Len())
	assert.False(t, got.Record.Has(types.FeatureRhyme))
	assert.False(t, got.Record.Has("備註"))
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), uuid.New().String())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestByCharAndAllPreserveOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs := []types.Record{
		dong(),
		dong().With(types.FeatureCharName, "同").With(types.FeatureOnset, "定"),
		dong().With(types.FeatureTone, "去"),
	}
	put, err := s.PutAll(ctx, recs)
	require.NoError(t, err)
	require.Len(t, put, 3)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := range all {
		assert.Equal(t, put[i].ID, all[i].ID)
		assert.True(t, recs[i].Equal(all[i].Record))
	}

	east, err := s.ByChar(ctx, "東")
	require.NoError(t, err)
	require.Len(t, east, 2)
	assert.Equal(t, "平", east[0].Record.Value(types.FeatureTone))
	assert.Equal(t, "去", east[1].Record.Value(types.FeatureTone))

	none, err := s.ByChar(ctx, "無")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	put, err := s.Put(ctx, dong())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, put.ID))

	_, err = s.Get(ctx, put.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, put.ID), ErrNotFound))
}

func TestPutAllCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.PutAll(ctx, []types.Record{dong()})
	require.Error(t, err)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestConcurrentPuts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Put(ctx, dong())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestImportExport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "readings.yaml")
	data := []byte(`
- 字: 東
  纽: 端
  呼: 開
  等: 一
  韵: 東
  声: 平
- 字: 支
  纽: 章
  呼: 開
  等: 三
  韵: 支A
  声: 平
  摄: 止
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	imported, err := s.Import(ctx, path)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	assert.Equal(t, "支A", imported[1].Record.Value(types.FeatureRhyme))

	all, err := s.All(ctx)
	require.NoError(t, err)
	out, err := ExportReadings(all)
	require.NoError(t, err)

	again, err := ParseReadings(out)
	require.NoError(t, err)
	require.Len(t, again, 2)
	for i := range again {
		assert.True(t, all[i].Record.Equal(again[i]))
	}

	_, err = s.Import(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseReadings([]byte("- [not, a, map]"))
	assert.Error(t, err)
}
