package zran

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// indexBuilder accumulates access points during a single forward pass
// and finalises them into a DeflateIndex. It is not exported: callers go
// through BuildIndex.
type indexBuilder struct {
	mode      CompressionMode
	points    []AccessPoint
	lastPoint int64
	span      int64
}

func newIndexBuilder(mode CompressionMode, span int64) *indexBuilder {
	return &indexBuilder{mode: mode, span: span, lastPoint: -1}
}

// addPoint records an access point if either the list is still empty or
// the uncompressed distance since the last recorded point is at least
// span. window must already be the reconstructed, oldest-first 32 KiB
// window (internal/inflate.Engine.Window() does this splice internally,
// so the builder never has to reassemble a ring itself).
func (b *indexBuilder) addPoint(inputOffset, outputOffset int64, bitOffset uint8, window []byte) {
	if len(b.points) > 0 && outputOffset-b.lastPoint < b.span {
		return
	}
	win := make([]byte, len(window))
	copy(win, window)
	b.points = append(b.points, AccessPoint{
		InputOffset:  inputOffset,
		BitOffset:    bitOffset,
		OutputOffset: outputOffset,
		Window:       win,
	})
	b.lastPoint = outputOffset
}

func (b *indexBuilder) finish(length int64) *DeflateIndex {
	return &DeflateIndex{mode: b.mode, points: b.points, length: length}
}

// Encode writes idx in the big-endian binary framing: length (u64), mode
// (i32), count (i32), then per point input_offset (u64), output_offset
// (u64), bit_offset (u32), followed by the full WindowSize-byte window.
func (idx *DeflateIndex) Encode(w io.Writer) error {
	hdr := make([]byte, 8+4+4)
	binary.BigEndian.PutUint64(hdr[0:8], uint64(idx.length))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(idx.mode))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(len(idx.points)))
	if _, err := w.Write(hdr); err != nil {
		return errors.Wrap(err, "zran: writing index header")
	}

	rec := make([]byte, 8+8+4)
	for i, p := range idx.points {
		if len(p.Window) != WindowSize {
			return errors.Wrapf(ErrShortWindow, "zran: point %d", i)
		}
		binary.BigEndian.PutUint64(rec[0:8], uint64(p.InputOffset))
		binary.BigEndian.PutUint64(rec[8:16], uint64(p.OutputOffset))
		binary.BigEndian.PutUint32(rec[16:20], uint32(p.BitOffset))
		if _, err := w.Write(rec); err != nil {
			return errors.Wrapf(err, "zran: writing point %d header", i)
		}
		if _, err := w.Write(p.Window); err != nil {
			return errors.Wrapf(err, "zran: writing point %d window", i)
		}
	}
	return nil
}

// DecodeIndex reads the framing Encode writes.
func DecodeIndex(r io.Reader) (*DeflateIndex, error) {
	hdr := make([]byte, 8+4+4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, errors.Wrap(err, "zran: reading index header")
	}
	length := int64(binary.BigEndian.Uint64(hdr[0:8]))
	mode := CompressionMode(int32(binary.BigEndian.Uint32(hdr[8:12])))
	count := int(binary.BigEndian.Uint32(hdr[12:16]))

	points := make([]AccessPoint, count)
	rec := make([]byte, 8+8+4)
	for i := range points {
		if _, err := io.ReadFull(r, rec); err != nil {
			return nil, errors.Wrapf(err, "zran: reading point %d header", i)
		}
		window := make([]byte, WindowSize)
		if _, err := io.ReadFull(r, window); err != nil {
			return nil, errors.Wrapf(err, "zran: reading point %d window", i)
		}
		points[i] = AccessPoint{
			InputOffset:  int64(binary.BigEndian.Uint64(rec[0:8])),
			OutputOffset: int64(binary.BigEndian.Uint64(rec[8:16])),
			BitOffset:    uint8(binary.BigEndian.Uint32(rec[16:20])),
			Window:       window,
		}
	}

	return &DeflateIndex{mode: mode, points: points, length: length}, nil
}
