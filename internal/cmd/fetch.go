package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/rhythmcache/libziprand/internal"
	"github.com/rhythmcache/libziprand/internal/config"
	"github.com/rhythmcache/libziprand/internal/managerlogging"
	"github.com/rhythmcache/libziprand/util"
)

// Fetch downloads whole archives from S3 with parallel ranged requests.
type Fetch struct {
	MaxConcurrency int `short:"P" long:"max-concurrency" default:"5" description:"use up to max-concurrency number of goroutines for ranged downloads"`
	Args           struct {
		URIs []string `positional-arg-name:"uri" description:"the s3://bucket/key URIs of the archives to download" required:"yes"`
	} `positional-args:"yes"`

	logger *log.Logger
}

func (c *Fetch) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max-concurrency must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	success := 0
	n := len(c.Args.URIs)
	for i, uri := range c.Args.URIs {
		c.logger = internal.NewLogger(i, n, uri)

		err := c.fetch(ctx, uri)
		if err == nil {
			success++
			continue
		}

		if errors.Is(err, context.Canceled) {
			break
		}

		c.logger.Printf("fetch error: %v", err)
	}

	log.Printf("successfully fetched %d/%d archives", success, n)
	return nil
}

func (c *Fetch) fetch(ctx context.Context, uri string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	client, err := config.NewS3ClientForBucket(ctx, bucket, func(options *s3.Options) {
		options.DisableLogOutputChecksumValidationSkipped = true
	})
	if err != nil {
		return fmt.Errorf("create S3 client error: %w", err)
	}

	owner := config.ForBucket(bucket).ExpectedBucketOwner
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:              aws.String(bucket),
		Key:                 aws.String(key),
		ExpectedBucketOwner: owner,
	})
	if err != nil {
		return fmt.Errorf("determine size of s3://%s/%s error: %w", bucket, key, err)
	}

	size := aws.ToInt64(head.ContentLength)
	partCount := int32((size + manager.DefaultDownloadPartSize - 1) / manager.DefaultDownloadPartSize)

	// attempt to create the local file that will store the downloaded archive.
	// if the download does not complete, clean up by deleting the local file.
	stem, ext := util.StemAndExt(key)
	f, err := util.OpenExclFile(".", stem, ext, 0666)
	if err != nil {
		return fmt.Errorf("create file error: %w", err)
	}
	name := f.Name()

	c.logger.Printf(`downloading %s to "%s"`, humanize.IBytes(uint64(size)), name)

	downloader := manager.NewDownloader(client,
		func(d *manager.Downloader) {
			d.Concurrency = c.MaxConcurrency
		},
		managerlogging.LogSuccessfulDownloadPartWithExpectedPartCount(c.logger, partCount))

	_, err = downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket:              aws.String(bucket),
		Key:                 aws.String(key),
		ExpectedBucketOwner: owner,
	})
	if _ = f.Close(); err != nil {
		c.logger.Printf(`deleting file "%s"`, name)
		if err := os.Remove(name); err != nil {
			c.logger.Printf("delete file error: %v", err)
		}

		return err
	}

	c.logger.Printf(`done downloading to "%s"`, util.DirBase(name))
	return nil
}
