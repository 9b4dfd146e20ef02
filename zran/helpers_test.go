package zran

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"strings"
)

// rawDeflate compresses data as a raw, unwrapped DEFLATE stream.
func rawDeflate(t interface{ Fatalf(string, ...any) }, data []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}
	return buf.Bytes()
}

// zlibCompress compresses data as a zlib-wrapped stream.
func zlibCompress(t interface{ Fatalf(string, ...any) }, data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// gzipCompress compresses data as a single-member gzip stream.
func gzipCompress(t interface{ Fatalf(string, ...any) }, data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// gzipMultiMember concatenates len(parts) independent gzip members into one
// stream, exercising the multi-member continuation paths in the builder
// and extractor.
func gzipMultiMember(t interface{ Fatalf(string, ...any) }, parts ...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(p); err != nil {
			t.Fatalf("gzip write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("gzip close: %v", err)
		}
	}
	return buf.Bytes()
}

// repeatTo returns s repeated and trimmed to exactly n bytes.
func repeatTo(s string, n int) string {
	return strings.Repeat(s, n/len(s)+1)[:n]
}

// lcgBytes generates n bytes via the 32-bit LCG
// state = (1664525*state + 1013904223) mod 2^32, replicating each
// generated byte groupSize times.
func lcgBytes(seed uint32, n, groupSize int) []byte {
	out := make([]byte, 0, n)
	state := seed
	for len(out) < n {
		state = 1664525*state + 1013904223
		b := byte(state >> 24)
		for i := 0; i < groupSize && len(out) < n; i++ {
			out = append(out, b)
		}
	}
	return out
}
