package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rhythmcache/libziprand"
	"github.com/rhythmcache/libziprand/internal"
	"github.com/rhythmcache/libziprand/util"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Extract writes the stored entries of an archive into a newly created directory.
//
// Because stored entries are byte-for-byte content, each one can be extracted independently with ranged reads, so
// entries are extracted in parallel. Entries that use a compression method are skipped with a log message.
type Extract struct {
	Dir            string `short:"d" long:"directory" description:"create the output directory under this directory instead of the working directory"`
	MaxConcurrency int    `short:"P" long:"max-concurrency" default:"5" description:"use up to max-concurrency number of goroutines to extract entries in parallel"`
	Args           struct {
		Archive string   `positional-arg-name:"archive" description:"local path, s3:// URI, or http(s):// URL of the archive" required:"yes"`
		Files   []string `positional-arg-name:"file" description:"extract only these entries; by default all stored entries are extracted"`
	} `positional-args:"yes"`
}

func (c *Extract) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max-concurrency must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	src, closeFn, err := openSource(ctx, c.Args.Archive)
	if err != nil {
		return err
	}
	defer closeFn()

	a := ziprand.New(src)
	entries, err := a.List(ctx)
	if err != nil {
		return err
	}

	if len(c.Args.Files) != 0 {
		if entries, err = pick(entries, c.Args.Files); err != nil {
			return err
		}
	}

	// non-stored entries and names that would escape the output directory are skipped, not fatal.
	files := make([]ziprand.Entry, 0, len(entries))
	var skipped int
	var total uint64
	for _, e := range entries {
		switch {
		case e.IsDir():
		case e.Method != ziprand.MethodStored:
			log.Printf(`skipping "%s": %s entries cannot be extracted`, e.Name, methodName(e.Method))
			skipped++
		case !filepath.IsLocal(filepath.FromSlash(e.Name)):
			log.Printf(`skipping "%s": name escapes the output directory`, e.Name)
			skipped++
		default:
			files = append(files, e)
			total += e.UncompressedSize
		}
	}

	parent := c.Dir
	if parent == "" {
		parent = "."
	}

	output, pathFn, err := c.createOutputDir(parent, files)
	if err != nil {
		return err
	}

	log.Printf(`extracting %d entries (%s) to "%s"`, len(files), humanize.IBytes(total), output)
	bar := internal.DefaultBytes(int64(total), "extracting")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.MaxConcurrency)
	for _, e := range files {
		g.Go(func() error {
			return extractEntry(gctx, a, e, pathFn(e.Name), bar)
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	_ = bar.Close()
	log.Printf(`successfully extracted %d/%d entries to "%s"`, len(files), len(files)+skipped, util.DirBase(output))
	return nil
}

// createOutputDir creates the output directory, returning alongside it the function that maps entry names to disk
// paths.
//
// When every entry shares a common top-level directory, that directory is unwrapped: the output directory inherits
// its name and the prefix is trimmed from entry names, so extracting an archive holding "test/a.txt" yields
// "test/a.txt" and not "test/test/a.txt". Otherwise the output directory is named after the archive.
func (c *Extract) createOutputDir(parent string, files []ziprand.Entry) (output string, pathFn func(string) string, err error) {
	names := make([]string, 0, len(files))
	for _, e := range files {
		names = append(names, e.Name)
	}

	if root := internal.FindRootDir(names); root != "" {
		if output, err = util.MkExclDir(parent, strings.TrimSuffix(string(root), "/"), 0755); err != nil {
			return "", nil, err
		}

		return output, func(name string) string {
			return root.Join(output, name)
		}, nil
	}

	stem, _ := util.StemAndExt(c.Args.Archive)
	if output, err = util.MkExclDir(parent, stem, 0755); err != nil {
		return "", nil, err
	}

	return output, func(name string) string {
		return filepath.Join(output, filepath.FromSlash(name))
	}, nil
}

// pick keeps the first entry for each requested name, mirroring how opening by name resolves duplicates.
func pick(entries []ziprand.Entry, names []string) ([]ziprand.Entry, error) {
	byName := make(map[string]ziprand.Entry, len(entries))
	for _, e := range entries {
		if _, ok := byName[e.Name]; !ok {
			byName[e.Name] = e
		}
	}

	picked := make([]ziprand.Entry, 0, len(names))
	for _, name := range names {
		e, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf(`entry "%s" not found in archive`, name)
		}

		picked = append(picked, e)
	}

	return picked, nil
}

func extractEntry(ctx context.Context, a *ziprand.Archive, e ziprand.Entry, path string, bar *progressbar.ProgressBar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := a.Open(ctx, e)
	if err != nil {
		return fmt.Errorf(`open "%s" error: %w`, e.Name, err)
	}

	w, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		_ = f.Close()
		return err
	}

	err = util.CopyBufferWithContext(ctx, io.MultiWriter(w, bar), f, nil)
	_, _ = f.Close(), w.Close()
	if err != nil {
		return fmt.Errorf(`extract "%s" error: %w`, e.Name, err)
	}

	return nil
}
