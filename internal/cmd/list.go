package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rhythmcache/libziprand"
	"github.com/rhythmcache/libziprand/internal"
	"golang.org/x/time/rate"
)

// List prints the entries of archives by reading only their central directories.
type List struct {
	Long bool `short:"l" long:"long" description:"print size, compression method, and modification time alongside names"`
	Args struct {
		Archives []string `positional-arg-name:"archive" description:"local paths, s3:// URIs, or http(s):// URLs of the archives to list" required:"yes"`
	} `positional-args:"yes"`

	logger *log.Logger
}

func (c *List) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	success := 0
	n := len(c.Args.Archives)
	for i, archive := range c.Args.Archives {
		c.logger = internal.NewLogger(i, n, archive)

		err := c.list(ctx, archive)
		if err == nil {
			success++
			continue
		}

		if errors.Is(err, context.Canceled) {
			break
		}

		c.logger.Printf("list error: %v", err)
	}

	log.Printf("successfully listed %d/%d archives", success, n)
	return nil
}

func (c *List) list(ctx context.Context, location string) error {
	src, closeFn, err := openSource(ctx, location)
	if err != nil {
		return err
	}
	defer closeFn()

	// rate.Sometimes fires on its first call, so burn that one to only report on genuinely long listings.
	sometimes := rate.Sometimes{Interval: 5 * time.Second}
	sometimes.Do(func() {})

	var count int
	var total uint64
	for e, err := range ziprand.New(src).Entries(ctx) {
		if err != nil {
			return err
		}

		if c.Long {
			fmt.Printf("%10s  %-10s  %s  %s\n", humanize.IBytes(e.UncompressedSize), methodName(e.Method), e.Modified.Format(time.DateTime), e.Name)
		} else {
			fmt.Println(e.Name)
		}

		count++
		total += e.UncompressedSize
		sometimes.Do(func() {
			c.logger.Printf("read %d entries so far", count)
		})
	}

	c.logger.Printf("%d entries, %s total", count, humanize.IBytes(total))
	return nil
}

func methodName(method uint16) string {
	switch method {
	case ziprand.MethodStored:
		return "stored"
	case ziprand.MethodDeflated:
		return "deflated"
	default:
		return fmt.Sprintf("method-%d", method)
	}
}
