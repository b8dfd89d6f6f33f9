package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rhythmcache/libziprand"
	"github.com/rhythmcache/libziprand/util"
)

// Cat writes the content of stored entries to standard output.
type Cat struct {
	Args struct {
		Archive string   `positional-arg-name:"archive" description:"local path, s3:// URI, or http(s):// URL of the archive" required:"yes"`
		Files   []string `positional-arg-name:"file" description:"names of the entries to print" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Cat) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	src, closeFn, err := openSource(ctx, c.Args.Archive)
	if err != nil {
		return err
	}
	defer closeFn()

	a := ziprand.New(src)
	buf := make([]byte, 32*1024)
	for _, name := range c.Args.Files {
		f, err := a.OpenName(ctx, name)
		if err != nil {
			return fmt.Errorf(`open "%s" error: %w`, name, err)
		}

		err = util.CopyBufferWithContext(ctx, os.Stdout, f, buf)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf(`write "%s" error: %w`, name, err)
		}
	}

	return nil
}
