package internal

import (
	"path/filepath"
	"strings"
)

// RootDir can be used to remove the root prefix of an entry name.
type RootDir string

// Join trims the root prefix from name then joins it with base using filepath.Join.
func (r RootDir) Join(base, name string) string {
	return filepath.Join(base, filepath.FromSlash(strings.TrimPrefix(name, string(r))))
}

// FindRootDir returns the common top-level directory of the given entry names, trailing slash included.
//
// Given these three names (entry names are always relative and use `/` as separator):
//
//	test/a.txt
//	test/path/b.txt
//	test/another/path/c.txt
//
// The common root directory of those files is `test/`. The returned value is empty if the given names have no common
// root directory.
//
// The definition of root is limited to the top-level directory only. Even if the names share a longer common prefix,
// such as `test/path/to/a.txt` and `test/path/to/b.txt`, the root is still `test/`: most users compress a directory
// wishing to retain the structure inside it, but when extracting they don't necessarily want the directory itself to
// nest again.
func FindRootDir(names []string) (rootDir RootDir) {
	fn := NewRootDirFinder()

	var ok bool
	for _, name := range names {
		rootDir, ok = fn(name)
		if !ok {
			break
		}
	}

	return
}

// NewRootDirFinder returns a function that is fed one entry name at a time to compute the common root.
//
// It returns the current root dir and a boolean indicating whether there is a common root so far. As soon as the
// returned boolean value is false, the search can stop since subsequent calls will keep returning `"", false`.
func NewRootDirFinder() func(name string) (rootDir RootDir, hasRoot bool) {
	noRoot, root := false, ""

	return func(name string) (RootDir, bool) {
		if noRoot {
			return "", false
		}

		dir, _, found := strings.Cut(name, "/")
		if !found || dir == "" {
			// a file at the top level rules out any common root.
			noRoot = true
			return "", false
		}

		switch prefix := dir + "/"; {
		case root == "":
			root = prefix
		case root != prefix:
			noRoot = true
			return "", false
		}

		return RootDir(root), true
	}
}
