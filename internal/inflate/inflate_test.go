package inflate

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func rawDeflate(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zlibCompress(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzipCompress(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestEngineReadMatchesStdlib(t *testing.T) {
	data := bytes.Repeat([]byte("engine read correctness payload, "), 40_000)

	for _, tc := range []struct {
		name string
		mode Mode
		data []byte
	}{
		{"raw", ModeRaw, rawDeflate(t, data)},
		{"zlib", ModeZlib, zlibCompress(t, data)},
		{"gzip", ModeGzip, gzipCompress(t, data)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var eng Engine
			eng.Reset(bytes.NewReader(tc.data), tc.mode)

			got, err := io.ReadAll(&eng)
			require.NoError(t, err)
			require.Equal(t, data, got)
			require.Equal(t, int64(len(data)), eng.BytesWritten())
		})
	}
}

func TestEngineAdvanceBoundariesAndWindow(t *testing.T) {
	data := bytes.Repeat([]byte("boundary and window payload, "), 20_000)
	compressed := rawDeflate(t, data)

	var eng Engine
	eng.Reset(bytes.NewReader(compressed), ModeRaw)

	var sawBoundary bool
	for {
		status, err := eng.Advance()
		require.NoError(t, err)
		if status == StatusStreamEnd {
			break
		}
		if eng.DataType()&0xc0 == 0x80 {
			sawBoundary = true
			require.Len(t, eng.Window(), windowSize)
			require.GreaterOrEqual(t, int(eng.DataType()&0x7), 0)
			require.LessOrEqual(t, int(eng.DataType()&0x7), 7)
		}
	}
	require.True(t, sawBoundary)
	require.Equal(t, int64(len(data)), eng.BytesWritten())
}

func TestEngineContinueResumesMidStream(t *testing.T) {
	data := bytes.Repeat([]byte("resume from a captured access point, "), 20_000)
	compressed := rawDeflate(t, data)

	var eng Engine
	eng.Reset(bytes.NewReader(compressed), ModeRaw)

	type point struct {
		roffset, woffset int64
		window           []byte
		bits             int
		value            byte
	}
	var mid *point

	for {
		status, err := eng.Advance()
		require.NoError(t, err)
		if status == StatusStreamEnd {
			break
		}
		if eng.DataType()&0xc0 == 0x80 && mid == nil && eng.BytesWritten() > int64(len(data))/2 {
			w := make([]byte, windowSize)
			copy(w, eng.Window())
			mid = &point{roffset: eng.BytesRead(), woffset: eng.BytesWritten(), window: w, bits: int(eng.DataType() & 0x7)}
			if mid.bits != 0 {
				r := bytes.NewReader(compressed)
				_, _ = r.Seek(mid.roffset-1, io.SeekStart)
				var b [1]byte
				_, _ = r.Read(b[:])
				mid.value = b[0]
			}
		}
	}
	require.NotNil(t, mid)

	var resumed Engine
	// The prime byte at roffset-1 was already captured in mid.value, so the
	// resumed engine reads from roffset on.
	r := io.NewSectionReader(bytes.NewReader(compressed), mid.roffset, int64(len(compressed))-mid.roffset)
	require.NoError(t, resumed.Continue(r, mid.roffset, mid.woffset, mid.window, mid.bits, mid.value))

	got, err := io.ReadAll(&resumed)
	require.NoError(t, err)
	require.Equal(t, data[mid.woffset:], got)
}

func TestEngineGzipMultiMember(t *testing.T) {
	part1 := bytes.Repeat([]byte("member one, "), 5000)
	part2 := bytes.Repeat([]byte("member two, "), 5000)

	var buf bytes.Buffer
	for _, p := range [][]byte{part1, part2} {
		w := gzip.NewWriter(&buf)
		_, err := w.Write(p)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	src := bytes.NewReader(buf.Bytes())
	var eng Engine
	eng.Reset(src, ModeGzip)

	var out bytes.Buffer
	small := make([]byte, 4096)
	for {
		n, err := eng.Read(small)
		out.Write(small[:n])
		if err == io.EOF {
			require.NoError(t, eng.Discard(8))
			if eng.Buffered() == 0 && src.Len() == 0 {
				break
			}
			eng.ResetMode(ModeGzip)
			continue
		}
		require.NoError(t, err)
	}

	want := append(append([]byte{}, part1...), part2...)
	require.Equal(t, want, out.Bytes())
}
