package inflate

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Mode selects the wrapper convention the engine expects, carrying the
// same window-bits values a libzlib binding would use for windowBits: -15
// for raw DEFLATE, 15 for zlib, 31 for gzip (RFC 1951/1950/1952
// respectively). The numeric values are part of the external contract.
type Mode int32

const (
	ModeRaw  Mode = -15
	ModeZlib Mode = 15
	ModeGzip Mode = 31
)

func (m Mode) String() string {
	switch m {
	case ModeRaw:
		return "raw"
	case ModeZlib:
		return "zlib"
	case ModeGzip:
		return "gzip"
	default:
		return fmt.Sprintf("inflate.Mode(%d)", int32(m))
	}
}

// Status distinguishes "keep calling me" from "the stream is exhausted",
// replacing the shadowed-return-value pattern spec.md's design notes warn
// against.
type Status int

const (
	StatusOK Status = iota
	StatusStreamEnd
)

// Reset prepares the engine to decode a fresh stream in the given mode,
// reading from r. It does not itself consume any bytes; wrapper header
// parsing happens lazily on the first Advance/Read call so that it is
// observable as a zero-output, block-boundary step, exactly like the
// first non-header block.
func (f *Engine) Reset(r io.Reader, mode Mode) {
	*f = Engine{
		r:        makeReader(r),
		mode:     mode,
		bits:     new([maxNumLit + maxNumDist]int),
		codebits: new([numCodes]int),
		step:     (*Engine).nextBlock,
	}
	f.dict.init(windowSize, nil)
}

// Continue is like Reset, but primes the engine at a mid-stream boundary:
// roffset/woffset seed the byte/uncompressed counters, window is installed
// as the full 32 KiB preset dictionary, and (bits, value) are the residual
// high bits carried over from the byte preceding roffset, exactly as
// described for AccessPoint.bit_offset. The engine always resumes in raw
// mode: the wrapper header, if any, was already consumed when window was
// captured.
func (f *Engine) Continue(r io.Reader, roffset, woffset int64, window []byte, bits int, value byte) error {
	if len(window) != windowSize {
		return errShortWindow
	}
	f.Reset(r, ModeRaw)
	f.headerDone = true
	f.roffset = roffset
	f.woffset = woffset
	f.dict.init(windowSize, window)
	if bits != 0 {
		f.prime(bits, value)
	}
	return nil
}

func (f *Engine) prime(bits int, value byte) {
	f.b = uint32(value) >> (8 - uint(bits))
	f.nb = uint(bits)
}

// SetDictionary installs window (exactly 32 KiB, oldest-first) as the
// engine's sliding-window history without touching input/output cursors.
// It is exposed separately from Continue for callers that build their own
// resumption sequencing.
func (f *Engine) SetDictionary(window []byte) error {
	if len(window) != windowSize {
		return errShortWindow
	}
	f.dict.init(windowSize, window)
	return nil
}

// Window returns the current 32 KiB sliding window, oldest-first,
// reconstructed from the ring buffer's current wrPos/full state. It
// is the value spec.md's add_point captures at an access point.
func (f *Engine) Window() []byte {
	return f.dict.window()
}

// BytesRead is the count of compressed bytes consumed so far: spec.md's
// totin (equivalently totin-avail_in, since this engine's I/O is blocking
// and never reports buffered-but-unconsumed input).
func (f *Engine) BytesRead() int64 { return f.roffset }

// BytesWritten is the count of uncompressed bytes produced so far
// (spec.md's totout).
func (f *Engine) BytesWritten() int64 { return f.woffset }

// DataType mirrors a libzlib z_stream.data_type byte: bits 0-2 are the
// number of unconsumed high bits left over from the byte at
// BytesRead()-1 (AccessPoint.bit_offset), bit 6 is set once the engine has
// read the header of the stream's last block, and bit 7 is set if the engine is
// sitting at a block boundary or just past the wrapper header -- the
// instant at which an access point may legally be recorded.
func (f *Engine) DataType() byte {
	dt := byte(f.nb & 0x7)
	if f.final {
		dt |= 0x40
	}
	if f.atBoundary {
		dt |= 0x80
	}
	return dt
}

// Mode reports the wrapper convention the engine is currently decoding.
func (f *Engine) Mode() Mode { return f.mode }

// Advance runs the engine for exactly one "block unit": it either
// completes a full DEFLATE block (stopping at the following block's
// boundary, mirroring Z_BLOCK) or pauses early because the output ring
// filled up mid-block. Any bytes produced are discarded (but still
// counted in BytesWritten): Advance is the primitive the index builder
// uses, which only cares about boundaries and the window they expose, not
// the decoded bytes themselves.
func (f *Engine) Advance() (Status, error) {
	f.atBoundary = false

	if f.mode != ModeRaw && !f.headerDone {
		if err := f.consumeHeader(); err != nil {
			return StatusOK, err
		}
		f.headerDone = true
		f.atBoundary = true
		return StatusOK, nil
	}

	f.step(f)
	f.woffset += int64(len(f.toRead))
	f.toRead = nil

	if f.err != nil {
		if f.err == io.EOF {
			return StatusStreamEnd, nil
		}
		return StatusOK, f.err
	}
	return StatusOK, nil
}

// Read decodes into p, pulling bytes from the underlying source exactly
// like an io.Reader. It ignores block boundaries entirely (the extractor
// does not need block granularity, only bytes). It returns io.EOF once
// the final block of the current member has been fully delivered.
func (f *Engine) Read(p []byte) (int, error) {
	for {
		if len(f.toRead) > 0 {
			n := copy(p, f.toRead)
			f.toRead = f.toRead[n:]
			f.woffset += int64(n)
			if len(f.toRead) == 0 {
				return n, f.err
			}
			return n, nil
		}
		if f.err != nil {
			return 0, f.err
		}
		if f.mode != ModeRaw && !f.headerDone {
			if err := f.consumeHeader(); err != nil {
				f.err = err
				return 0, err
			}
			f.headerDone = true
			f.atBoundary = true
			continue
		}
		f.atBoundary = false
		f.step(f)
	}
}

// consumeHeader reads and discards a zlib or gzip wrapper header, blocking
// on f.r exactly like the rest of the engine's input path.
func (f *Engine) consumeHeader() error {
	switch f.mode {
	case ModeZlib:
		return f.consumeZlibHeader()
	case ModeGzip:
		return f.consumeGzipHeader()
	default:
		return nil
	}
}

func (f *Engine) consumeZlibHeader() error {
	var hdr [2]byte
	n, err := io.ReadFull(f.r, hdr[:])
	f.roffset += int64(n)
	if err != nil {
		return noEOF(err)
	}
	if hdr[0]&0x0f != 8 {
		return CorruptInputError(f.roffset)
	}
	if (uint16(hdr[0])<<8+uint16(hdr[1]))%31 != 0 {
		return CorruptInputError(f.roffset)
	}
	if hdr[1]&0x20 != 0 {
		// FDICT: a 4-byte dictionary id follows. zran never builds an
		// index over dictionary-primed zlib streams.
		return fmt.Errorf("inflate: zlib streams with a preset dictionary id are not supported")
	}
	return nil
}

const (
	gzipID1      = 0x1f
	gzipID2      = 0x8b
	gzipDeflate  = 8
	gzipFText    = 1 << 0
	gzipFHCRC    = 1 << 1
	gzipFExtra   = 1 << 2
	gzipFName    = 1 << 3
	gzipFComment = 1 << 4
)

// consumeGzipHeader reads one gzip member header (RFC 1952 section 2.3),
// discarding its optional fields.
func (f *Engine) consumeGzipHeader() error {
	var hdr [10]byte
	n, err := io.ReadFull(f.r, hdr[:])
	f.roffset += int64(n)
	if err != nil {
		return noEOF(err)
	}
	if hdr[0] != gzipID1 || hdr[1] != gzipID2 || hdr[2] != gzipDeflate {
		return CorruptInputError(f.roffset)
	}
	flg := hdr[3]

	if flg&gzipFExtra != 0 {
		var lenBuf [2]byte
		n, err := io.ReadFull(f.r, lenBuf[:])
		f.roffset += int64(n)
		if err != nil {
			return noEOF(err)
		}
		extraLen := int(binary.LittleEndian.Uint16(lenBuf[:]))
		n2, err := io.CopyN(io.Discard, f.r, int64(extraLen))
		f.roffset += n2
		if err != nil {
			return noEOF(err)
		}
	}
	if flg&gzipFName != 0 {
		if err := f.discardCString(); err != nil {
			return err
		}
	}
	if flg&gzipFComment != 0 {
		if err := f.discardCString(); err != nil {
			return err
		}
	}
	if flg&gzipFHCRC != 0 {
		var crc [2]byte
		n, err := io.ReadFull(f.r, crc[:])
		f.roffset += int64(n)
		if err != nil {
			return noEOF(err)
		}
	}
	return nil
}

func (f *Engine) discardCString() error {
	var b [1]byte
	for {
		n, err := f.r.Read(b[:])
		f.roffset += int64(n)
		if err != nil {
			return noEOF(err)
		}
		if n == 0 {
			continue
		}
		if b[0] == 0 {
			return nil
		}
	}
}

// Buffered reports how many bytes of input are already sitting in the
// engine's internal buffer, unconsumed. Gzip multi-member handling uses
// this to tell "more data is already in hand" apart from "need to ask the
// source whether anything follows" without peeking past the engine's own
// reader.
func (f *Engine) Buffered() int {
	if br, ok := f.r.(*bufio.Reader); ok {
		return br.Buffered()
	}
	return 0
}

// Discard reads and throws away exactly n bytes from the engine's input,
// advancing BytesRead() accordingly. It is used to skip a gzip member's
// 8-byte CRC32+ISIZE trailer between members.
func (f *Engine) Discard(n int) error {
	nn, err := io.CopyN(io.Discard, f.r, int64(n))
	f.roffset += nn
	if err != nil {
		return noEOF(err)
	}
	return nil
}

// ResetMode reinitialises decode state for a new member in mode, while
// keeping the engine's current input source and running byte/output
// counters. It is how the builder and extractor step from one gzip member
// to the next: the underlying reader (and anything it has buffered ahead)
// stays intact, only the Huffman/window/bit state resets.
func (f *Engine) ResetMode(mode Mode) {
	r := f.r
	roffset := f.roffset
	woffset := f.woffset
	*f = Engine{
		r:        r,
		mode:     mode,
		roffset:  roffset,
		woffset:  woffset,
		bits:     new([maxNumLit + maxNumDist]int),
		codebits: new([numCodes]int),
		step:     (*Engine).nextBlock,
	}
	f.dict.init(windowSize, nil)
}

// Close releases the engine's reference to its source. It is always safe
// to call, including after an error.
func (f *Engine) Close() {
	f.r = nil
}
