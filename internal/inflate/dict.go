// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inflate

// dictDecoder implements the LZ77 sliding window used by DEFLATE. It is a
// fixed-size ring buffer: writes wrap around, and back-references read
// through the wrap exactly like the teacher's Decompressor.dict field.
type dictDecoder struct {
	hist []byte

	wrPos int
	rdPos int
	full  bool
}

// init resets d to have a window of the given size, optionally pre-seeded
// with dict (a preset dictionary, oldest-first, as delivered by
// Engine.SetDictionary).
func (d *dictDecoder) init(size int, dict []byte) {
	*d = dictDecoder{hist: d.hist}
	if cap(d.hist) < size {
		d.hist = make([]byte, size)
	}
	d.hist = d.hist[:size]

	if len(dict) > len(d.hist) {
		dict = dict[len(dict)-len(d.hist):]
	}
	d.wrPos = copy(d.hist, dict)
	if d.wrPos == len(d.hist) {
		d.wrPos = 0
		d.full = true
	}
	d.rdPos = d.wrPos
}

// histSize reports the number of bytes that back-references may reach into.
func (d *dictDecoder) histSize() int {
	if d.full {
		return len(d.hist)
	}
	return d.wrPos
}

func (d *dictDecoder) availRead() int {
	return d.wrPos - d.rdPos
}

func (d *dictDecoder) availWrite() int {
	return len(d.hist) - d.wrPos
}

func (d *dictDecoder) writeSlice() []byte {
	return d.hist[d.wrPos:]
}

func (d *dictDecoder) writeMark(cnt int) {
	d.wrPos += cnt
}

func (d *dictDecoder) writeByte(c byte) {
	d.hist[d.wrPos] = c
	d.wrPos++
}

// writeCopy copies a match of the given length from dist bytes back,
// wrapping through the ring as needed, stopping early if the buffer fills.
func (d *dictDecoder) writeCopy(dist, length int) int {
	dstBase := d.wrPos
	dstPos := dstBase
	srcPos := dstPos - dist
	endPos := dstPos + length
	if endPos > len(d.hist) {
		endPos = len(d.hist)
	}

	// Non-overlapping section that wraps around the back of the ring.
	if srcPos < 0 {
		srcPos += len(d.hist)
		dstPos += copy(d.hist[dstPos:endPos], d.hist[srcPos:])
		srcPos = 0
	}

	// Possibly overlapping section (LZ77 allows dist < length).
	for dstPos < endPos {
		dstPos += copy(d.hist[dstPos:endPos], d.hist[srcPos:dstPos])
	}

	d.wrPos = dstPos
	return dstPos - dstBase
}

// tryWriteCopy is the fast path: it only succeeds if the whole copy fits
// without wrapping or touching unwritten history.
func (d *dictDecoder) tryWriteCopy(dist, length int) int {
	dstPos := d.wrPos
	endPos := dstPos + length
	if dstPos < dist || endPos > len(d.hist) {
		return 0
	}
	dstBase := dstPos
	srcPos := dstPos - dist

	for dstPos < endPos {
		dstPos += copy(d.hist[dstPos:endPos], d.hist[srcPos:dstPos])
	}

	d.wrPos = dstPos
	return dstPos - dstBase
}

// readFlush hands the caller everything written since the last flush.
func (d *dictDecoder) readFlush() []byte {
	toRead := d.hist[d.rdPos:d.wrPos]
	d.rdPos = d.wrPos
	if d.wrPos == len(d.hist) {
		d.wrPos, d.rdPos, d.full = 0, 0, true
	}
	return toRead
}

// window reconstructs the logical oldest-first 32 KiB window implied by the
// ring's current wrPos/full state, matching spec.md §4.2's
// window_ring/window_tail_fill splice: the "tail fill" is len(hist)-wrPos,
// i.e. how much of the ring is still unwritten from wrPos to the end.
func (d *dictDecoder) window() []byte {
	out := make([]byte, len(d.hist))
	if !d.full {
		// Ring never wrapped: oldest-first order is simply hist[:wrPos]
		// left-padded with zeroes (this only occurs before the window has
		// been filled once since the last init, i.e. within the first
		// len(hist) bytes of a stream or of a gzip member).
		copy(out[len(out)-d.wrPos:], d.hist[:d.wrPos])
		return out
	}
	n := copy(out, d.hist[d.wrPos:])
	copy(out[n:], d.hist[:d.wrPos])
	return out
}
