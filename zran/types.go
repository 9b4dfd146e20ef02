// Package zran provides random-access reads into DEFLATE, zlib, and gzip
// compressed streams via a compact access-point index: build the index once
// with a single forward decompression pass, then extract arbitrary
// uncompressed byte ranges without replaying the whole stream.
package zran

import (
	"io"

	"github.com/cjgriscom/zran/internal/inflate"
)

const (
	// WindowSize is the size, in bytes, of the DEFLATE sliding window
	// every AccessPoint carries. Fixed by the format.
	WindowSize = 1 << 15

	// ChunkSize is the size of a Reader's scratch buffer of uncompressed
	// bytes: each refill extracts up to this many bytes.
	ChunkSize = 16 << 10

	// DefaultSpan is the default minimum uncompressed-byte distance
	// between consecutive access points.
	DefaultSpan = 1 << 20
)

// CompressionMode names the wrapper framing around the raw DEFLATE payload,
// carrying the window-bits convention a libzlib-style inflate engine would
// use for windowBits.
type CompressionMode int32

const (
	ModeRaw  CompressionMode = CompressionMode(inflate.ModeRaw)
	ModeZlib CompressionMode = CompressionMode(inflate.ModeZlib)
	ModeGzip CompressionMode = CompressionMode(inflate.ModeGzip)
)

func (m CompressionMode) String() string {
	return inflate.Mode(m).String()
}

// SeekReaderAt is the minimal byte-source contract the builder and
// extractor need: blocking positioned reads (which may short-read) plus
// absolute/relative seeking. An io.ReaderAt can be adapted to it with
// io.NewSectionReader.
type SeekReaderAt interface {
	io.Reader
	io.Seeker
}

// AccessPoint is an immutable record of decoder state sufficient to resume
// inflation at a mid-stream block boundary.
type AccessPoint struct {
	// InputOffset is the compressed byte position at which resumption
	// begins: the byte at this position holds the next bit to consume.
	InputOffset int64

	// BitOffset is the count (0..7) of unconsumed high bits carried over
	// from the byte at InputOffset-1. A nonzero value means resumption
	// must re-read that byte and inject its top BitOffset bits before
	// feeding anything at InputOffset.
	BitOffset uint8

	// OutputOffset is the uncompressed byte position reached at this
	// point.
	OutputOffset int64

	// Window is exactly WindowSize bytes of uncompressed output
	// immediately preceding OutputOffset, oldest-first.
	Window []byte
}

// DeflateIndex is an ordered, immutable list of access points covering one
// compressed stream, plus the stream's total uncompressed length.
type DeflateIndex struct {
	mode   CompressionMode
	points []AccessPoint
	length int64
}

// Mode reports the wrapper format the index was built against.
func (idx *DeflateIndex) Mode() CompressionMode { return idx.mode }

// Length reports the total uncompressed size of the indexed stream.
func (idx *DeflateIndex) Length() int64 { return idx.length }

// Points returns the index's access points in ascending output-offset
// order. The returned slice aliases the index's internal storage and must
// not be modified.
func (idx *DeflateIndex) Points() []AccessPoint { return idx.points }
