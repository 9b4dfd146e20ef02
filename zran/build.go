package zran

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cjgriscom/zran/internal/inflate"
)

// BuildIndex performs a single forward decompression pass over src,
// detecting its wrapper format on the first byte and recording an access
// point every time the uncompressed output has advanced at least span
// bytes past the last one recorded. src is rewound to its start before
// reading begins; one indexBuilder instance is good for exactly one pass.
func BuildIndex(src SeekReaderAt, span int64) (*DeflateIndex, error) {
	if span <= 0 {
		span = DefaultSpan
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "zran: seeking to start of source")
	}
	pb := newPushbackSource(src)

	mode, err := detectMode(pb)
	if err != nil {
		return nil, errors.Wrap(err, "zran: detecting compression mode")
	}
	logrus.WithField("mode", mode).Debug("zran: detected compression mode")

	var eng inflate.Engine
	eng.Reset(pb, inflate.Mode(mode))

	b := newIndexBuilder(mode, span)

	if mode == ModeRaw {
		// Raw streams have no wrapper header, so Advance never produces
		// a synthetic boundary at the very start: synthesise it here so
		// invariant 2 (first point at output offset 0) still holds.
		b.addPoint(0, 0, 0, eng.Window())
	}

	for {
		status, err := eng.Advance()
		if err != nil {
			return nil, errors.Wrapf(err, "zran: inflating at output offset %d", eng.BytesWritten())
		}

		if status == inflate.StatusStreamEnd {
			more, err := endOfMember(mode, &eng, pb)
			if err != nil {
				return nil, errors.Wrap(err, "zran: handling gzip member boundary")
			}
			if more {
				eng.ResetMode(inflate.ModeGzip)
				continue
			}
			break
		}

		dt := eng.DataType()
		if dt&0xc0 == 0x80 {
			b.addPoint(eng.BytesRead(), eng.BytesWritten(), dt&0x7, eng.Window())
			logrus.WithFields(logrus.Fields{
				"input_offset":  eng.BytesRead(),
				"output_offset": eng.BytesWritten(),
			}).Debug("zran: recorded access point")
		}
	}

	return b.finish(eng.BytesWritten()), nil
}

// detectMode inspects the first byte of pb without consuming it: low
// nibble 8 signals a zlib header, 0x1f signals a gzip header, anything
// else (including no input at all) is treated as raw DEFLATE.
func detectMode(pb *pushbackSource) (CompressionMode, error) {
	var b [1]byte
	n, err := pb.Read(b[:])
	if err != nil && err != io.EOF {
		return 0, err
	}
	if n == 0 {
		return ModeRaw, nil
	}

	mode := ModeRaw
	switch {
	case b[0]&0x0f == 8:
		mode = ModeZlib
	case b[0] == gzipMagic:
		mode = ModeGzip
	}
	if err := pb.unread(b[0]); err != nil {
		return 0, err
	}
	return mode, nil
}

const gzipMagic = 0x1f

// endOfMember handles a StatusStreamEnd result. For non-gzip streams there
// is nothing more to do. For gzip, it discards the 8-byte CRC32+ISIZE
// trailer of the member that just ended and reports whether another member
// follows, by checking the engine's own buffered input before falling back
// to a source-level EOF probe.
func endOfMember(mode CompressionMode, eng *inflate.Engine, pb *pushbackSource) (bool, error) {
	if mode != ModeGzip {
		return false, nil
	}
	if err := eng.Discard(8); err != nil {
		return false, errors.Wrap(err, "zran: discarding gzip member trailer")
	}
	if eng.Buffered() > 0 {
		return true, nil
	}
	eof, err := pb.isEOF()
	if err != nil {
		return false, err
	}
	return !eof, nil
}
