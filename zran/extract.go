package zran

import (
	"io"

	"github.com/pkg/errors"

	"github.com/cjgriscom/zran/internal/inflate"
)

// Extract decompresses into dst starting at the given uncompressed offset,
// using idx to resume mid-stream instead of decompressing from the start
// of src. It returns the number of bytes written, which is less than
// len(dst) only if the uncompressed stream ends first; offsets at or past
// idx.Length() return 0 with no error.
func Extract(src SeekReaderAt, idx *DeflateIndex, offset int64, dst []byte) (int, error) {
	if len(idx.points) == 0 {
		return 0, ErrEmptyIndex
	}
	if idx.points[0].OutputOffset != 0 {
		return 0, ErrMisalignedIndex
	}
	if offset >= idx.length || len(dst) == 0 {
		return 0, nil
	}

	p := idx.points[locatePoint(idx.points, offset)]

	seekTo := p.InputOffset
	if p.BitOffset != 0 {
		seekTo--
	}
	if _, err := src.Seek(seekTo, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "zran: seeking to access point")
	}
	pb := newPushbackSource(src)

	var primeByte byte
	if p.BitOffset != 0 {
		var b [1]byte
		if _, err := io.ReadFull(pb, b[:]); err != nil {
			return 0, errors.Wrap(err, "zran: reading bit-residue byte")
		}
		primeByte = b[0]
	}

	// Extraction always resumes in raw mode: the recorded window already
	// stands in for whatever wrapper header produced it.
	var eng inflate.Engine
	if err := eng.Continue(pb, p.InputOffset, p.OutputOffset, p.Window, int(p.BitOffset), primeByte); err != nil {
		return 0, errors.Wrap(err, "zran: priming inflate engine")
	}
	defer eng.Close()

	skip := offset - p.OutputOffset
	left := len(dst)
	var discard []byte

	for left > 0 {
		var out []byte
		if skip > 0 {
			n := skip
			if n > WindowSize {
				n = WindowSize
			}
			if int64(cap(discard)) < n {
				discard = make([]byte, n)
			}
			out = discard[:n]
		} else {
			out = dst[len(dst)-left:]
		}

		n, err := eng.Read(out)
		if n > 0 {
			if skip > 0 {
				skip -= int64(n)
			} else {
				left -= n
			}
		}

		if err == nil {
			continue
		}
		if err != io.EOF {
			return len(dst) - left, errors.Wrap(err, "zran: inflating")
		}

		more, merr := endOfExtractMember(idx.mode, &eng, pb)
		if merr != nil {
			return len(dst) - left, errors.Wrap(merr, "zran: handling gzip member boundary")
		}
		if !more {
			break
		}
	}

	return len(dst) - left, nil
}

// locatePoint finds the largest index i such that points[i].OutputOffset
// <= offset, via the lo=-1/hi=len(points) binary search invariant: lo
// always names a point known to satisfy the predicate (or -1), hi always
// names one known not to (or len(points)).
func locatePoint(points []AccessPoint, offset int64) int {
	lo, hi := -1, len(points)
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if points[mid].OutputOffset <= offset {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// endOfExtractMember handles an io.EOF result from the extraction
// engine for a gzip-mode index: it discards the member's 8-byte trailer
// and, if another member follows, advances the engine far enough to
// consume that member's header before the skip-and-emit loop resumes.
func endOfExtractMember(mode CompressionMode, eng *inflate.Engine, pb *pushbackSource) (bool, error) {
	if mode != ModeGzip {
		return false, nil
	}
	if err := eng.Discard(8); err != nil {
		return false, errors.Wrap(err, "zran: discarding gzip member trailer")
	}

	more := eng.Buffered() > 0
	if !more {
		eof, err := pb.isEOF()
		if err != nil {
			return false, err
		}
		more = !eof
	}
	if !more {
		return false, nil
	}

	eng.ResetMode(inflate.ModeGzip)
	if _, err := eng.Advance(); err != nil {
		return false, errors.Wrap(err, "zran: consuming next gzip member header")
	}
	return true, nil
}
