package compression

import "github.com/klauspost/compress/zstd"

// ZstdCompressor is the default at-rest codec for writing content in the
// database backend.
type ZstdCompressor struct{}

func (z ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}

	out := encoder.EncodeAll(data, make([]byte, 0, len(data)))
	return out, encoder.Close()
}

func (z ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, make([]byte, 0, len(data)*3))
}
