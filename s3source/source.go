// Package s3source provides a ziprand.ByteSource backed by ranged S3 GetObject calls.
package s3source

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rhythmcache/libziprand"
)

// GetObjectClient abstracts the API that is needed to read object content.
type GetObjectClient interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client additionally abstracts HeadObject, which New uses to determine the object's size.
type Client interface {
	GetObjectClient
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Options customises New and NewWithSize.
type Options struct {
	// CtxFn returns a context.Context to be used with every GetObject or HeadObject call.
	//
	// By default, context.Background is used.
	CtxFn func() context.Context

	// ModifyGetObjectInput can be used to modify the GetObject input parameters such as adding
	// ExpectedBucketOwner. The Range parameter is set after this function returns and must be left alone.
	//
	// Its return value will be used to make the GetObject call.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// ModifyHeadObjectInput can be used to modify the HeadObject input parameters such as adding
	// ExpectedBucketOwner.
	//
	// Its return value will be used to make the HeadObject call. This value is only used by New.
	ModifyHeadObjectInput func(*s3.HeadObjectInput) *s3.HeadObjectInput
}

// Source reads an S3 object at arbitrary offsets using ranged GetObject calls.
//
// The object's size is captured once at construction; if the object is replaced afterwards, reads may return
// content from the new generation. Pin a specific version with ModifyGetObjectInput when the bucket is
// versioned.
type Source struct {
	client               GetObjectClient
	bucket, key          string
	ctxFn                func() context.Context
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
	size                 int64
}

var _ ziprand.ByteSource = (*Source)(nil)

// New returns a Source for the given bucket and key.
//
// The client will be used to determine a valid size for the object.
func New(client Client, bucket, key string, optFns ...func(*Options)) (*Source, error) {
	opts := newOptions(optFns)

	headObjectOutput, err := client.HeadObject(opts.CtxFn(), opts.ModifyHeadObjectInput(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}))
	if err != nil {
		return nil, fmt.Errorf("determine size of s3://%s/%s error: %w", bucket, key, err)
	}

	return &Source{
		client:               client,
		bucket:               bucket,
		key:                  key,
		ctxFn:                opts.CtxFn,
		modifyGetObjectInput: opts.ModifyGetObjectInput,
		size:                 aws.ToInt64(headObjectOutput.ContentLength),
	}, nil
}

// NewWithSize returns a Source for the given bucket, key, and known size, skipping the HeadObject call.
func NewWithSize(client GetObjectClient, bucket, key string, size int64, optFns ...func(*Options)) *Source {
	opts := newOptions(optFns)

	return &Source{
		client:               client,
		bucket:               bucket,
		key:                  key,
		ctxFn:                opts.CtxFn,
		modifyGetObjectInput: opts.ModifyGetObjectInput,
		size:                 size,
	}
}

func newOptions(optFns []func(*Options)) *Options {
	opts := &Options{
		CtxFn: context.Background,
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
		ModifyHeadObjectInput: func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
			return input
		},
	}
	for _, fn := range optFns {
		fn(opts)
	}

	return opts
}

// Size returns the object size captured when the source was created.
func (s *Source) Size() (int64, error) {
	return s.size, nil
}

// ReadAt reads object content at the given offset with a single ranged GetObject.
//
// A read extending past the end of the object is clamped and reports io.EOF with the partial count, per the
// io.ReaderAt contract.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	expected := len(p)
	if end >= s.size {
		end = s.size - 1
		expected = int(end - off + 1)
	}

	input := s.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", off, end))

	getObjectOutput, err := s.client.GetObject(s.ctxFn(), input)
	if err != nil {
		return 0, fmt.Errorf("get s3://%s/%s error: %w", s.bucket, s.key, err)
	}

	// the body must be drained fully; a single Read may legally return fewer bytes than the range holds.
	n, err := io.ReadFull(getObjectOutput.Body, p[:expected])
	if _ = getObjectOutput.Body.Close(); err != nil {
		return n, fmt.Errorf("read s3://%s/%s response body error: %w", s.bucket, s.key, err)
	}

	if expected < len(p) {
		return n, io.EOF
	}

	return n, nil
}
