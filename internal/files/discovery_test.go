package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rankdelta/internal/errors"
)

func writeFileAt(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestFind_FiltersAndSortsByModTime(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	writeFileAt(t, dir, "old.csv", base)
	writeFileAt(t, dir, "newer.xlsx", base.Add(10*time.Minute))
	writeFileAt(t, dir, "newest.CSV", base.Add(20*time.Minute))
	writeFileAt(t, dir, "ignored.pdf", base.Add(30*time.Minute))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	d := NewDiscovery(dir, []string{".csv", ".xlsx"})
	files, err := d.Find()
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "old.csv", files[0].Name)
	assert.Equal(t, "newer.xlsx", files[1].Name)
	assert.Equal(t, "newest.CSV", files[2].Name)
}

func TestFind_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	writeFileAt(t, sub, "hidden.csv", time.Now())

	d := NewDiscovery(dir, []string{".csv"})
	files, err := d.Find()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLatest_ReturnsNewestWindowOldestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	writeFileAt(t, dir, "day1.csv", base)
	day2 := writeFileAt(t, dir, "day2.csv", base.Add(10*time.Minute))
	day3 := writeFileAt(t, dir, "day3.csv", base.Add(20*time.Minute))

	d := NewDiscovery(dir, []string{".csv"})
	paths, err := d.Latest(2)
	require.NoError(t, err)

	assert.Equal(t, []string{day2, day3}, paths)
}

func TestPrepare_ExplicitBypassesDiscovery(t *testing.T) {
	d := NewDiscovery("/does/not/exist", []string{".csv"})

	paths, err := d.Prepare([]string{"a.csv", "b.csv"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv"}, paths)
}

func TestPrepare_InsufficientExplicit(t *testing.T) {
	d := NewDiscovery(t.TempDir(), []string{".csv"})

	_, err := d.Prepare([]string{"only.csv"}, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientInputs(err))
}

func TestPrepare_InsufficientDiscovered(t *testing.T) {
	dir := t.TempDir()
	writeFileAt(t, dir, "only.csv", time.Now())

	d := NewDiscovery(dir, []string{".csv"})
	_, err := d.Prepare(nil, 2)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientInputs(err))
}

func TestFind_MissingDirectory(t *testing.T) {
	d := NewDiscovery(filepath.Join(t.TempDir(), "missing"), []string{".csv"})
	_, err := d.Find()
	require.Error(t, err)
}
