package zran

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildIndexInvariants(t *testing.T) {
	data := []byte(repeatTo("the quick brown fox jumps over the lazy dog. ", 500_000))

	for _, tc := range []struct {
		name string
		mode CompressionMode
		data []byte
		span int64
	}{
		{"raw", ModeRaw, rawDeflate(t, data), 64 << 10},
		{"zlib", ModeZlib, zlibCompress(t, data), 64 << 10},
		{"gzip", ModeGzip, gzipCompress(t, data), 64 << 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := BuildIndex(bytes.NewReader(tc.data), tc.span)
			require.NoError(t, err)
			require.Equal(t, tc.mode, idx.Mode())
			require.Equal(t, int64(len(data)), idx.Length())

			points := idx.Points()
			require.NotEmpty(t, points)
			require.Equal(t, int64(0), points[0].OutputOffset)

			for i, p := range points {
				require.GreaterOrEqual(t, int(p.BitOffset), 0)
				require.LessOrEqual(t, int(p.BitOffset), 7)
				require.Len(t, p.Window, WindowSize)
				if i > 0 {
					require.Greater(t, p.OutputOffset, points[i-1].OutputOffset)
					gap := p.OutputOffset - points[i-1].OutputOffset
					if i < len(points)-1 {
						require.GreaterOrEqual(t, gap, tc.span)
					}
				}
			}
		})
	}
}

func TestBuildIndexIdempotent(t *testing.T) {
	data := []byte(repeatTo("idempotence check payload ", 200_000))
	compressed := gzipCompress(t, data)

	idx1, err := BuildIndex(bytes.NewReader(compressed), 32<<10)
	require.NoError(t, err)
	idx2, err := BuildIndex(bytes.NewReader(compressed), 32<<10)
	require.NoError(t, err)

	var buf1, buf2 bytes.Buffer
	require.NoError(t, idx1.Encode(&buf1))
	require.NoError(t, idx2.Encode(&buf2))
	require.True(t, bytes.Equal(buf1.Bytes(), buf2.Bytes()))
}

func TestBuildIndexGzipMultiMember(t *testing.T) {
	part1 := []byte(repeatTo("member one payload ", 100_000))
	part2 := []byte(repeatTo("member two payload ", 100_000))
	compressed := gzipMultiMember(t, part1, part2)

	idx, err := BuildIndex(bytes.NewReader(compressed), 16<<10)
	require.NoError(t, err)
	require.Equal(t, int64(len(part1)+len(part2)), idx.Length())

	want := append(append([]byte{}, part1...), part2...)
	got := make([]byte, len(want))
	n, err := Extract(bytes.NewReader(compressed), idx, 0, got)
	require.NoError(t, err)
	require.Equal(t, len(want), n)
	require.Equal(t, want, got)
}
