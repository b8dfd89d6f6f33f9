package managerlogging

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LoggingDownloadAPIClient provides pre- and post- hooks on the methods that manager.Downloader may call.
//
// The hooks may be called from any of the goroutines that download parts in parallel, so they must be safe for
// concurrent use.
type LoggingDownloadAPIClient struct {
	manager.DownloadAPIClient
	PreGetObject  func(context.Context, *s3.GetObjectInput, ...func(*s3.Options))
	PostGetObject func(*s3.GetObjectOutput, error)
}

// WrapDownloadAPIClient wraps the specified manager.DownloadAPIClient as a LoggingDownloadAPIClient.
func WrapDownloadAPIClient(client manager.DownloadAPIClient, optFns ...func(*LoggingDownloadAPIClient)) *LoggingDownloadAPIClient {
	w := &LoggingDownloadAPIClient{DownloadAPIClient: client}
	for _, fn := range optFns {
		fn(w)
	}

	return w
}

// rewrap replaces downloader.S3 with a LoggingDownloadAPIClient whose PostGetObject the caller replaces.
// An existing LoggingDownloadAPIClient is unwrapped so that its PreGetObject carries over and still fires exactly
// once per GetObject.
func rewrap(downloader *manager.Downloader) *LoggingDownloadAPIClient {
	var client *LoggingDownloadAPIClient
	switch v := downloader.S3.(type) {
	case *LoggingDownloadAPIClient:
		client = &LoggingDownloadAPIClient{
			DownloadAPIClient: v.DownloadAPIClient,
			PreGetObject:      v.PreGetObject,
		}
	default:
		client = &LoggingDownloadAPIClient{DownloadAPIClient: v}
	}

	downloader.S3 = client
	return client
}

// LogSuccessfulDownloadPart creates a manager.Downloader option that logs only successfully downloaded parts.
//
// The logger keeps a running tally of the completed parts, and the log messages will be in this format:
// `downloaded %d parts so far`.
func LogSuccessfulDownloadPart(logger *log.Logger) func(*manager.Downloader) {
	return func(downloader *manager.Downloader) {
		client := rewrap(downloader)

		var n atomic.Int32
		client.PostGetObject = func(output *s3.GetObjectOutput, err error) {
			if err == nil {
				logger.Printf("downloaded %d parts so far", n.Add(1))
			}
		}
	}
}

// LogSuccessfulDownloadPartWithExpectedPartCount creates a manager.Downloader option that logs only successfully
// downloaded parts against an expected total number of parts.
//
// The logger keeps a running tally of the completed parts, and the log messages will be in this format:
// `downloaded %d/%d parts so far` except for when the tally equals partCount, in which case the message becomes
// `downloaded %d/%d parts`. The tally is allowed to exceed the expected total number of parts without validation.
func LogSuccessfulDownloadPartWithExpectedPartCount(logger *log.Logger, partCount int32) func(*manager.Downloader) {
	return func(downloader *manager.Downloader) {
		client := rewrap(downloader)

		var n atomic.Int32
		client.PostGetObject = func(output *s3.GetObjectOutput, err error) {
			if err == nil {
				if v := n.Add(1); v == partCount {
					logger.Printf("downloaded %d/%d parts", partCount, partCount)
				} else {
					logger.Printf("downloaded %d/%d parts so far", v, partCount)
				}
			}
		}
	}
}

func (l LoggingDownloadAPIClient) GetObject(ctx context.Context, input *s3.GetObjectInput, f ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if l.PreGetObject != nil {
		l.PreGetObject(ctx, input, f...)
	}
	o, err := l.DownloadAPIClient.GetObject(ctx, input, f...)
	if l.PostGetObject != nil {
		l.PostGetObject(o, err)
	}
	return o, err
}

var _ manager.DownloadAPIClient = LoggingDownloadAPIClient{}
var _ manager.DownloadAPIClient = &LoggingDownloadAPIClient{}
