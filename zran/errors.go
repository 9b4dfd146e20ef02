package zran

import "errors"

// Sentinel errors. Wrapped at call sites with github.com/pkg/errors so that
// errors.Is still matches these through the wrap, matching the convention
// of the example repo this package's builder/extractor are grounded on.
var (
	// ErrEmptyIndex is returned by Extract and NewReader when the index
	// carries no access points at all.
	ErrEmptyIndex = errors.New("zran: index has no access points")

	// ErrMisalignedIndex is returned when points[0].output_offset != 0,
	// i.e. the index does not cover the start of the uncompressed stream.
	ErrMisalignedIndex = errors.New("zran: index's first point is not at output offset 0")

	// ErrPushbackFull is returned by pushbackSource.unread when a byte is
	// already occupying the one-byte pushback slot.
	ErrPushbackFull = errors.New("zran: pushback slot already occupied")

	// ErrShortWindow is returned when a caller-supplied window is not
	// exactly windowSize bytes.
	ErrShortWindow = errors.New("zran: window must be exactly 32768 bytes")
)
