// Package httpsource provides a ziprand.ByteSource backed by HTTP range requests.
//
// The remote content's size and validators (ETag, Last-Modified) are probed once at construction; every
// subsequent read sends the validators as preconditions so a changed remote fails loudly instead of serving
// bytes from two different generations of the content.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rhythmcache/libziprand"
)

var (
	// ErrRangeNotSupported is returned when the server answers a ranged request with the full content,
	// meaning it ignores Range headers altogether.
	ErrRangeNotSupported = errors.New("httpsource: server does not support range requests")

	// ErrSourceChanged is returned when the remote content no longer matches the validators captured at
	// construction.
	ErrSourceChanged = errors.New("httpsource: remote content changed since the source was created")
)

// Options customises New.
type Options struct {
	// Client is used for every request.
	//
	// By default, http.DefaultClient is used.
	Client *http.Client

	// Header is added to every request, e.g. for authorisation.
	Header http.Header

	// CtxFn returns a context.Context to be used with every request.
	//
	// By default, context.Background is used.
	CtxFn func() context.Context
}

// Source reads remote content at arbitrary offsets via HTTP range requests.
type Source struct {
	url          string
	client       *http.Client
	header       http.Header
	ctxFn        func() context.Context
	size         int64
	etag         string
	lastModified string
}

var _ ziprand.ByteSource = (*Source)(nil)

// New probes url and returns a Source for its content.
//
// A HEAD request gathers advisory metadata, then a one-byte ranged GET verifies the server honours Range
// headers and yields the authoritative total size from Content-Range. Servers that ignore Range fail with
// [ErrRangeNotSupported] here rather than on first read.
func New(url string, optFns ...func(*Options)) (*Source, error) {
	opts := &Options{
		Client: http.DefaultClient,
		CtxFn:  context.Background,
	}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.CtxFn == nil {
		opts.CtxFn = context.Background
	}

	s := &Source{
		url:    url,
		client: opts.Client,
		header: opts.Header.Clone(),
		ctxFn:  opts.CtxFn,
	}
	if err := s.probe(); err != nil {
		return nil, err
	}

	return s, nil
}

// Size returns the total size captured when the source was created.
func (s *Source) Size() (int64, error) {
	return s.size, nil
}

// ReadAt reads content at the given offset with a single ranged GET.
//
// A read extending past the end of the content is clamped and reports io.EOF with the partial count, per the
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

	req, err := s.newRequest(http.MethodGet)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s error: %w", s.url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case http.StatusPreconditionFailed:
		return 0, fmt.Errorf("get %s: %w", s.url, ErrSourceChanged)
	case http.StatusOK:
		return 0, fmt.Errorf("get %s: %w", s.url, ErrRangeNotSupported)
	default:
		return 0, fmt.Errorf("get %s: unexpected status %s", s.url, resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err != nil {
		return n, fmt.Errorf("read response body error: %w", err)
	}
	if expected < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (s *Source) probe() error {
	// HEAD is advisory: servers may refuse it or omit the length, so the ranged probe below stays
	// authoritative for the size.
	headSize := int64(-1)
	if req, err := s.newRequest(http.MethodHead); err == nil {
		if resp, err := s.client.Do(req); err == nil {
			headSize = resp.ContentLength
			s.etag = resp.Header.Get("ETag")
			s.lastModified = resp.Header.Get("Last-Modified")
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	}

	req, err := s.newRequest(http.MethodGet)
	if err != nil {
		return err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s error: %w", s.url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent, http.StatusRequestedRangeNotSatisfiable:
	case http.StatusOK:
		return fmt.Errorf("probe %s: %w", s.url, ErrRangeNotSupported)
	default:
		return fmt.Errorf("probe %s: unexpected status %s", s.url, resp.Status)
	}

	size, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return fmt.Errorf("probe %s: %w", s.url, err)
	}
	if headSize >= 0 && headSize != size {
		return fmt.Errorf("probe %s: HEAD length %d disagrees with Content-Range total %d", s.url, headSize, size)
	}

	s.size = size
	if s.etag == "" {
		s.etag = resp.Header.Get("ETag")
	}
	if s.lastModified == "" {
		s.lastModified = resp.Header.Get("Last-Modified")
	}

	return nil
}

func (s *Source) newRequest(method string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(s.ctxFn(), method, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s %s error: %w", method, s.url, err)
	}

	for key, values := range s.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}

	if method == http.MethodGet {
		if s.etag != "" && req.Header.Get("If-Match") == "" {
			req.Header.Set("If-Match", s.etag)
		}
		if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}

	return req, nil
}

// parseContentRange extracts the complete length from a Content-Range header such as "bytes 0-0/1234". An
// unknown total ("*") is rejected: without a size there is nowhere to anchor the directory scan.
func parseContentRange(value string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}

	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}

	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}

	return size, nil
}
