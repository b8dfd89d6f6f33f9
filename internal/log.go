package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/rhythmcache/libziprand/util"
)

// Prefix creates a consistent prefix for all commands that loop over several archives.
//
// i and n are the zero-based ordinal and expected count. The base name is shortened so that log lines stay readable
// even with very long archive names.
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s" - `, i+1, n, util.TruncateRightWithSuffix(filepath.Base(name), 30, "..."))
}

// NewLogger creates a log.Logger writing to stderr with Prefix(i, n, name) as its prefix.
func NewLogger(i, n int, name string) *log.Logger {
	return log.New(os.Stderr, Prefix(i, n, name), 0)
}
