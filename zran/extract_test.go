package zran

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildAndExtractTail builds an index over compressed with the given span,
// then extracts want's length worth of bytes at the offset where want is
// expected to start.
func buildAndExtractTail(t *testing.T, compressed []byte, span, offset int64, want []byte) {
	t.Helper()
	idx, err := BuildIndex(bytes.NewReader(compressed), span)
	require.NoError(t, err)

	got := make([]byte, len(want))
	n, err := Extract(bytes.NewReader(compressed), idx, offset, got)
	require.NoError(t, err)
	require.Equal(t, len(want), n)
	require.Equal(t, want, got)
}

func TestExtractEndToEndScenarios(t *testing.T) {
	repeatUnit := []byte(repeatTo("REPEAT_ME", 86))
	finalStr := []byte(repeatTo("FINAL_STR", 86))

	var payload bytes.Buffer
	for i := 0; i < 199_999; i++ {
		payload.Write(repeatUnit)
	}
	payload.Write(finalStr)
	offset := int64(199_999 * 86)

	t.Run("scenario2_raw", func(t *testing.T) {
		buildAndExtractTail(t, rawDeflate(t, payload.Bytes()), 1_048_576, offset, finalStr)
	})
	t.Run("scenario3_gzip", func(t *testing.T) {
		buildAndExtractTail(t, gzipCompress(t, payload.Bytes()), 1_048_576, offset, finalStr)
	})
	t.Run("scenario4_zlib", func(t *testing.T) {
		buildAndExtractTail(t, zlibCompress(t, payload.Bytes()), 16_384, offset, finalStr)
	})
}

func TestExtractLCGTail(t *testing.T) {
	data := lcgBytes(12345, 160_000, 4)

	for _, mode := range []func(interface{ Fatalf(string, ...any) }, []byte) []byte{rawDeflate, zlibCompress, gzipCompress} {
		compressed := mode(t, data)
		idx, err := BuildIndex(bytes.NewReader(compressed), 16_384)
		require.NoError(t, err)

		want := data[159_990:160_000]
		got := make([]byte, 10)
		n, err := Extract(bytes.NewReader(compressed), idx, 159_990, got)
		require.NoError(t, err)
		require.Equal(t, 10, n)
		require.Equal(t, want, got)
	}
}

func TestExtractAtOrPastLength(t *testing.T) {
	data := []byte(repeatTo("boundary condition payload ", 50_000))
	compressed := gzipCompress(t, data)
	idx, err := BuildIndex(bytes.NewReader(compressed), 8192)
	require.NoError(t, err)

	buf := make([]byte, 16)
	n, err := Extract(bytes.NewReader(compressed), idx, idx.Length(), buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = Extract(bytes.NewReader(compressed), idx, idx.Length()+1000, buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestExtractMatchesLinearDecompressionEverywhere(t *testing.T) {
	data := []byte(repeatTo("random access must match linear decompression exactly. ", 300_000))
	compressed := rawDeflate(t, data)
	idx, err := BuildIndex(bytes.NewReader(compressed), 16_384)
	require.NoError(t, err)

	offsets := []int64{0, 1, 4095, 16_383, 16_384, 100_000, int64(len(data)) - 1}
	for _, off := range offsets {
		k := 37
		if off+int64(k) > int64(len(data)) {
			k = int(int64(len(data)) - off)
		}
		want := data[off : int(off)+k]
		got := make([]byte, k)
		n, err := Extract(bytes.NewReader(compressed), idx, off, got)
		require.NoError(t, err)
		require.Equal(t, k, n)
		require.Equal(t, want, got)
	}
}

func TestExtractRejectsInvalidIndex(t *testing.T) {
	idx := &DeflateIndex{}
	_, err := Extract(bytes.NewReader(nil), idx, 0, make([]byte, 1))
	require.ErrorIs(t, err, ErrEmptyIndex)

	idx2 := &DeflateIndex{points: []AccessPoint{{OutputOffset: 10, Window: make([]byte, WindowSize)}}, length: 100}
	_, err = Extract(bytes.NewReader(nil), idx2, 0, make([]byte, 1))
	require.ErrorIs(t, err, ErrMisalignedIndex)
}
