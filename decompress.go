// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Size of the little-endian uncompressed-size hint that precedes the DEFLATE
// stream in a compressed payload.
const decompressedSizeHintLength = 4

// Decompress returns the usable payload of the subrecord.
//
// For an uncompressed subrecord this is a fresh copy of Data. For a
// compressed subrecord the 4-byte uncompressed-size hint is skipped and the
// rest of Data is inflated as a raw DEFLATE stream (no zlib or gzip framing).
// The hint is informational only and is not checked against the inflated
// length; the games themselves write hints that disagree with the stream.
func (s *Subrecord) Decompress() ([]byte, error) {
	if !s.Compressed {
		data := make([]byte, len(s.Data))
		copy(data, s.Data)
		return data, nil
	}

	if len(s.Data) < decompressedSizeHintLength {
		return nil, fmt.Errorf("compressed %q payload is %d bytes, shorter than the size hint",
			s.Type, len(s.Data))
	}

	r := flate.NewReader(bytes.NewReader(s.Data[decompressedSizeHintLength:]))
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate %q payload: %w", s.Type, err)
	}

	return data, nil
}
