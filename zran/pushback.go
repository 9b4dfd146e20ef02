package zran

import "io"

// pushbackSource wraps a SeekReaderAt, adding a one-byte unread slot and a
// cheap EOF probe. At most one byte is ever buffered; seeking always drops
// it.
type pushbackSource struct {
	src SeekReaderAt

	has bool
	b   byte
}

func newPushbackSource(src SeekReaderAt) *pushbackSource {
	return &pushbackSource{src: src}
}

// unread stashes b to be returned by the next Read. It fails if a byte is
// already pending, which indicates a caller bug (two unreads without an
// intervening read).
func (p *pushbackSource) unread(b byte) error {
	if p.has {
		return ErrPushbackFull
	}
	p.has = true
	p.b = b
	return nil
}

func (p *pushbackSource) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if p.has {
		buf[0] = p.b
		p.has = false
		if len(buf) == 1 {
			return 1, nil
		}
		n, err := p.src.Read(buf[1:])
		return n + 1, err
	}
	return p.src.Read(buf)
}

// Seek invalidates the pending pushback byte before delegating.
func (p *pushbackSource) Seek(offset int64, whence int) (int64, error) {
	p.has = false
	return p.src.Seek(offset, whence)
}

// isEOF reports whether the source has no more bytes to give, without
// consuming any: it performs a one-byte probe read and, if a byte arrives,
// pushes it back.
func (p *pushbackSource) isEOF() (bool, error) {
	var b [1]byte
	n, err := p.Read(b[:])
	if n == 1 {
		if perr := p.unread(b[0]); perr != nil {
			return false, perr
		}
		return false, nil
	}
	if err == io.EOF {
		return true, nil
	}
	return false, err
}
