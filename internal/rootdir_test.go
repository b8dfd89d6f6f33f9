package internal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindRootDir(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantRoot string
	}{
		{
			name: "simple root",
			args: []string{
				"test/a.txt",
				"test/path/b.txt",
				"test/another/path/c.txt",
			},
			wantRoot: "test/",
		},
		{
			name: "no root",
			args: []string{
				"a.txt",
				"path/b.txt",
				"another/path/c.txt",
			},
			wantRoot: "",
		},
		{
			name: "long root",
			args: []string{
				"test/path/to/a.txt",
				"test/path/to/b.txt",
				"test/path/to/c.txt",
			},
			wantRoot: "test/",
		},
		{
			name: "root dir marker included",
			args: []string{
				"test/",
				"test/a.txt",
			},
			wantRoot: "test/",
		},
		{
			name: "diverging roots",
			args: []string{
				"test/a.txt",
				"test2/b.txt",
			},
			wantRoot: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := make([]string, 0)
			gotRoot, fn := RootDir(""), NewRootDirFinder()
			for _, name := range tt.args {
				names = append(names, name)
				gotRoot, _ = fn(name)
			}

			assert.Equalf(t, RootDir(tt.wantRoot), gotRoot, "NewRootDirFinder() got = %v, want = %v", gotRoot, tt.wantRoot)

			gotRoot = FindRootDir(names)
			assert.Equalf(t, RootDir(tt.wantRoot), gotRoot, "FindRootDir(%v) got = %v, want = %v", tt.args, gotRoot, tt.wantRoot)
		})
	}
}

func TestRootDir_Join(t *testing.T) {
	root := RootDir("test/")
	assert.Equal(t, filepath.Join("out", "a.txt"), root.Join("out", "test/a.txt"))
	assert.Equal(t, filepath.Join("out", "path", "b.txt"), root.Join("out", "test/path/b.txt"))
	// names outside the root are left intact.
	assert.Equal(t, filepath.Join("out", "test2", "c.txt"), root.Join("out", "test2/c.txt"))
}
