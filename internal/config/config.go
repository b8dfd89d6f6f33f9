package config

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// BucketConfig contains configuration settings for a specific bucket.
type BucketConfig struct {
	Bucket              string
	AWSProfile          string
	ExpectedBucketOwner *string
}

// ForBucket returns configuration for a specific bucket, read from the section named "s3://<bucket>".
func (l *Loader) ForBucket(bucket string) (c BucketConfig) {
	if l.cfg == nil {
		return c
	}

	sec, err := l.cfg.GetSection("s3://" + bucket)
	if err != nil {
		return c
	}

	c.Bucket = bucket

	c.AWSProfile = sec.Key("aws-profile").Value()

	if v := sec.Key("expected-bucket-owner").Value(); v != "" {
		c.ExpectedBucketOwner = aws.String(v)
	}

	return
}

// ForBucket calls Loader.ForBucket on the DefaultLoader instance.
func ForBucket(bucket string) (c BucketConfig) {
	return DefaultLoader.ForBucket(bucket)
}

// HTTPConfig contains configuration settings for archives read over HTTP.
type HTTPConfig struct {
	// Header holds extra headers to attach to every request, such as Authorization for private archives.
	Header http.Header
}

// ForHTTP returns configuration from the "http" section whose keys are header names.
func (l *Loader) ForHTTP() (c HTTPConfig) {
	if l.cfg == nil {
		return c
	}

	sec, err := l.cfg.GetSection("http")
	if err != nil {
		return c
	}

	c.Header = http.Header{}
	for _, k := range sec.Keys() {
		c.Header.Add(k.Name(), k.Value())
	}

	return
}

// ForHTTP calls Loader.ForHTTP on the DefaultLoader instance.
func ForHTTP() (c HTTPConfig) {
	return DefaultLoader.ForHTTP()
}
