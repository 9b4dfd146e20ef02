// Package rangesource provides an io.ReaderAt over HTTP Range requests, so
// zran's index builder and extractor can run against a remote object
// without downloading it first.
package rangesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// TODO: probe with a single small Range request up front to catch
// redirects before the first real read, instead of re-resolving mid-read.

// Reader is an io.ReaderAt backed by HTTP Range requests against uri.
type Reader struct {
	ctx context.Context
	rt  http.RoundTripper
	uri string
}

// New returns a Reader issuing requests with rt (http.DefaultTransport if
// nil) against uri.
func New(ctx context.Context, uri string, rt http.RoundTripper) *Reader {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &Reader{ctx: ctx, rt: rt, uri: uri}
}

// Size issues a HEAD request and returns the resource's Content-Length, for
// callers that need the stream's total size before wrapping a Reader in
// io.NewSectionReader (as zran's SeekReaderAt contract requires).
func (r *Reader) Size() (int64, error) {
	req, err := http.NewRequestWithContext(r.ctx, http.MethodHead, r.uri, nil)
	if err != nil {
		return 0, errors.Wrap(err, "rangesource: building HEAD request")
	}
	res, err := r.rt.RoundTrip(req)
	if err != nil {
		return 0, errors.Wrap(err, "rangesource: HEAD request")
	}
	defer res.Body.Close()

	if res.ContentLength < 0 {
		return 0, errors.Errorf("%q did not report a Content-Length", r.uri)
	}
	return res.ContentLength, nil
}

// ReadAt implements io.ReaderAt by issuing a Range: bytes=off-(off+len(p)-1)
// request. A 3xx redirect response is followed and the resolved location is
// cached for subsequent reads.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, r.uri, nil)
	if err != nil {
		return 0, errors.Wrap(err, "rangesource: building request")
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1))

	res, err := r.rt.RoundTrip(req)
	if err != nil {
		return 0, errors.Wrap(err, "rangesource: round trip")
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusPartialContent {
		return io.ReadFull(res.Body, p)
	}

	redir := res.Header.Get("Location")
	if redir == "" || res.StatusCode/100 != 3 {
		return 0, errors.Errorf("%q does not support range requests, saw status: %d", r.uri, res.StatusCode)
	}

	u, err := url.Parse(redir)
	if err != nil {
		return 0, errors.Wrap(err, "rangesource: parsing redirect location")
	}
	r.uri = req.URL.ResolveReference(u).String()
	return r.ReadAt(p, off)
}
