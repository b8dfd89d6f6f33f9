package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenExclFile(t *testing.T) {
	dir := t.TempDir()

	f, err := OpenExclFile(dir, "report", ".tar.gz", 0666)
	assert.NoErrorf(t, err, "OpenExclFile() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "report.tar.gz"), f.Name())
	assert.NoError(t, f.Close())

	// subsequent calls must not clobber the existing file, picking suffixed names instead.
	f, err = OpenExclFile(dir, "report", ".tar.gz", 0666)
	assert.NoErrorf(t, err, "OpenExclFile() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "report-1.tar.gz"), f.Name())
	assert.NoError(t, f.Close())

	f, err = OpenExclFile(dir, "report", ".tar.gz", 0666)
	assert.NoErrorf(t, err, "OpenExclFile() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "report-2.tar.gz"), f.Name())
	assert.NoError(t, f.Close())
}

func TestMkExclDir(t *testing.T) {
	dir := t.TempDir()

	name, err := MkExclDir(dir, "output", 0755)
	assert.NoErrorf(t, err, "MkExclDir() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "output"), name)

	name, err = MkExclDir(dir, "output", 0755)
	assert.NoErrorf(t, err, "MkExclDir() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "output-1"), name)

	fi, err := os.Stat(name)
	assert.NoError(t, err)
	assert.True(t, fi.IsDir())
}
