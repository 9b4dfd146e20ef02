package zran

import (
	"io"

	"github.com/pkg/errors"
)

// Reader presents a positioned, seekable view over the uncompressed
// content of a compressed stream, backed by an owned byte source and a
// DeflateIndex. It is not safe for concurrent use: it owns one byte source
// and one scratch chunk.
type Reader struct {
	src SeekReaderAt
	idx *DeflateIndex

	offset int64

	chunk    []byte // scratch decompression buffer, ChunkSize bytes
	chunkOff int64  // uncompressed offset chunk[0] corresponds to
	chunkLen int    // valid bytes currently in chunk
	chunkPos int    // read cursor within chunk
}

// NewReader returns a Reader over src using idx. src is not read until the
// first Read call.
func NewReader(src SeekReaderAt, idx *DeflateIndex) (*Reader, error) {
	if len(idx.points) == 0 {
		return nil, ErrEmptyIndex
	}
	if idx.points[0].OutputOffset != 0 {
		return nil, ErrMisalignedIndex
	}
	return &Reader{
		src:   src,
		idx:   idx,
		chunk: make([]byte, ChunkSize),
	}, nil
}

// Read implements io.Reader, decompressing from the current offset.
func (r *Reader) Read(p []byte) (int, error) {
	if r.offset >= r.idx.length {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	total := 0
	for total < len(p) {
		if r.chunkPos >= r.chunkLen {
			if err := r.fill(); err != nil {
				if total > 0 {
					return total, nil
				}
				return 0, err
			}
			if r.chunkLen == 0 {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
		}

		n := copy(p[total:], r.chunk[r.chunkPos:r.chunkLen])
		r.chunkPos += n
		r.offset += int64(n)
		total += n
	}
	return total, nil
}

// fill refills the scratch chunk by extracting at the reader's current
// offset.
func (r *Reader) fill() error {
	r.chunkOff = r.offset
	r.chunkPos = 0
	n, err := Extract(r.src, r.idx, r.offset, r.chunk)
	r.chunkLen = n
	if err != nil {
		return errors.Wrap(err, "zran: refilling reader chunk")
	}
	return nil
}

// Seek implements io.Seeker. It only updates the logical offset and drops
// the scratch buffer; no source I/O happens until the next Read.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = r.idx.length + offset
	default:
		return 0, errors.Errorf("zran: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("zran: negative seek position")
	}
	if whence == io.SeekEnd && offset >= 0 {
		if abs > r.idx.length {
			abs = r.idx.length
		}
	}

	r.offset = abs
	r.chunkLen = 0
	r.chunkPos = 0
	return r.offset, nil
}

// ReadAt implements io.ReaderAt without disturbing the reader's logical
// Read/Seek offset or its scratch cache.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.idx.length {
		return 0, io.EOF
	}
	n, err := Extract(r.src, r.idx, off, p)
	if err != nil {
		return n, errors.Wrap(err, "zran: ReadAt")
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
