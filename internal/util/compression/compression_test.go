package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressors(t *testing.T) {
	compressors := map[string]Compressor{
		"zstd": ZstdCompressor{},
		"gzip": GzipCompressor{},
	}

	for name, c := range compressors {
		t.Run(name, func(t *testing.T) {
			t.Run("Round trips content", func(t *testing.T) {
				original := []byte("<p>" + strings.Repeat("some writing content ", 50) + "</p>")

				compressed, err := c.Compress(original)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}
				if len(compressed) >= len(original) {
					t.Errorf("Expected repetitive content to shrink, got %d >= %d", len(compressed), len(original))
				}

				decompressed, err := c.Decompress(compressed)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if !bytes.Equal(decompressed, original) {
					t.Error("Expected decompressed content to match the original")
				}
			})

			t.Run("Empty content", func(t *testing.T) {
				compressed, err := c.Compress(nil)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}
				decompressed, err := c.Decompress(compressed)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if len(decompressed) != 0 {
					t.Errorf("Expected empty output, got %d bytes", len(decompressed))
				}
			})

			t.Run("Garbage input", func(t *testing.T) {
				if _, err := c.Decompress([]byte("definitely not compressed")); err == nil {
					t.Error("Expected an error for garbage input")
				}
			})
		})
	}
}
