package inflate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedHuffmanDecoderIsComplete(t *testing.T) {
	require.NotZero(t, fixedHuffmanDecoder.min)
}

func TestHuffmanDecoderRejectsIncompleteTree(t *testing.T) {
	var h huffmanDecoder
	// A single length-2 code can't cover all 4 leaves of a 2-bit tree.
	ok := h.init([]int{2, 0, 0, 0})
	require.False(t, ok)
}

func TestHuffmanDecoderAcceptsDegenerateSingleSymbol(t *testing.T) {
	var h huffmanDecoder
	ok := h.init([]int{1, 0})
	require.True(t, ok)
}

func TestHuffmanDecoderAcceptsCompleteTree(t *testing.T) {
	var h huffmanDecoder
	// Two equal-length codes exactly cover a 1-bit tree.
	ok := h.init([]int{1, 1})
	require.True(t, ok)
}
