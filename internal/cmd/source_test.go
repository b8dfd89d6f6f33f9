package cmd

import (
	"testing"

	"github.com/rhythmcache/libziprand"
	"github.com/stretchr/testify/assert"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "simple",
			uri:        "s3://my-bucket/archive.zip",
			wantBucket: "my-bucket",
			wantKey:    "archive.zip",
		},
		{
			name:       "nested key",
			uri:        "s3://my-bucket/backups/2024/archive.zip",
			wantBucket: "my-bucket",
			wantKey:    "backups/2024/archive.zip",
		},
		{
			name:    "missing key",
			uri:     "s3://my-bucket",
			wantErr: true,
		},
		{
			name:    "missing bucket",
			uri:     "s3:///archive.zip",
			wantErr: true,
		},
		{
			name:    "not an s3 uri",
			uri:     "https://example.com/archive.zip",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := parseS3URI(tt.uri)
			if tt.wantErr {
				assert.Errorf(t, err, "parseS3URI() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			assert.NoErrorf(t, err, "parseS3URI() error = %v", err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestPick(t *testing.T) {
	entries := []ziprand.Entry{
		{Name: "a.txt", Offset: 0},
		{Name: "b.txt", Offset: 100},
		{Name: "a.txt", Offset: 200},
	}

	picked, err := pick(entries, []string{"b.txt", "a.txt"})
	assert.NoError(t, err)
	if assert.Len(t, picked, 2) {
		assert.Equal(t, "b.txt", picked[0].Name)
		// duplicate names resolve to the first central directory record.
		assert.Equal(t, "a.txt", picked[1].Name)
		assert.Equal(t, int64(0), picked[1].Offset)
	}

	_, err = pick(entries, []string{"missing.txt"})
	assert.Error(t, err)
}

func TestMethodName(t *testing.T) {
	assert.Equal(t, "stored", methodName(ziprand.MethodStored))
	assert.Equal(t, "deflated", methodName(ziprand.MethodDeflated))
	assert.Equal(t, "method-12", methodName(12))
}
