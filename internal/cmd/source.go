package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rhythmcache/libziprand"
	"github.com/rhythmcache/libziprand/httpsource"
	"github.com/rhythmcache/libziprand/internal/config"
	"github.com/rhythmcache/libziprand/s3source"
)

// parseS3URI splits an "s3://bucket/key" location into bucket and key.
func parseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf(`not an S3 URI: "%s"`, uri)
	}

	if bucket, key, ok = strings.Cut(rest, "/"); !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf(`S3 URI must be in format "s3://bucket/key": "%s"`, uri)
	}

	return bucket, key, nil
}

// openSource resolves location into the byte source for an archive.
//
// A location starting with "s3://" reads an S3 object, "http://" or "https://" a remote file via range requests,
// anything else a local file. The returned close function must be called once the archive is no longer needed.
func openSource(ctx context.Context, location string) (ziprand.ByteSource, func() error, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		bucket, key, err := parseS3URI(location)
		if err != nil {
			return nil, nil, err
		}

		client, err := config.NewS3ClientForBucket(ctx, bucket, func(options *s3.Options) {
			// without this, ranged reads log a bunch of WARN messages below:
			// WARN Response has no supported checksum. Not validating response payload.
			options.DisableLogOutputChecksumValidationSkipped = true
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create S3 client error: %w", err)
		}

		owner := config.ForBucket(bucket).ExpectedBucketOwner
		src, err := s3source.New(client, bucket, key, func(options *s3source.Options) {
			options.CtxFn = func() context.Context { return ctx }
			options.ModifyGetObjectInput = func(input *s3.GetObjectInput) *s3.GetObjectInput {
				input.ExpectedBucketOwner = owner
				return input
			}
			options.ModifyHeadObjectInput = func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
				input.ExpectedBucketOwner = owner
				return input
			}
		})
		if err != nil {
			return nil, nil, err
		}

		return src, noopClose, nil

	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		src, err := httpsource.New(location, func(options *httpsource.Options) {
			options.CtxFn = func() context.Context { return ctx }
			options.Header = config.ForHTTP().Header
		})
		if err != nil {
			return nil, nil, err
		}

		return src, noopClose, nil

	default:
		src, err := ziprand.OpenFile(location)
		if err != nil {
			return nil, nil, err
		}

		return src, src.Close, nil
	}
}

func noopClose() error {
	return nil
}
