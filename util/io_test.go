package util

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyBufferWithContext(t *testing.T) {
	var dst bytes.Buffer
	err := CopyBufferWithContext(t.Context(), &dst, strings.NewReader("hello, world!"), nil)
	assert.NoErrorf(t, err, "CopyBufferWithContext() error = %v", err)
	assert.Equal(t, "hello, world!", dst.String())
}

func TestCopyBufferWithContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	// a 1-byte buffer guarantees at least one write happens before the context check.
	var dst bytes.Buffer
	err := CopyBufferWithContext(ctx, &dst, strings.NewReader("hello"), make([]byte, 1))
	assert.ErrorIsf(t, err, context.Canceled, "CopyBufferWithContext() error = %v, want context.Canceled", err)
}
