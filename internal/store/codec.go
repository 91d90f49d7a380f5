package store

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Model blobs are zstd-compressed before they hit a backend: fitted tree
// ensembles serialize to highly repetitive JSON that compresses an order of
// magnitude.

// Compress encodes raw model bytes with zstd. The encoder is created per
// call; training happens at most a few times per process lifetime, so there
// is nothing to pool.
func Compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// Decompress decodes a zstd-compressed model blob.
func Decompress(blob []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing model blob: %w", err)
	}
	return raw, nil
}
