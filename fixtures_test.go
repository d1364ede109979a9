// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/flate"
)

// appendSubrecord appends a subrecord in the game's wire layout.
func appendSubrecord(buf []byte, game GameId, tag string, data []byte) []byte {
	buf = append(buf, tag...)
	if game == Morrowind {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	} else {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(data)))
	}
	return append(buf, data...)
}

// appendLargeSubrecord appends an XXXX marker followed by a subrecord whose
// on-wire length field is a zero sentinel, the way large records are written
// on disk.
func appendLargeSubrecord(buf []byte, tag string, data []byte) []byte {
	buf = append(buf, largeSubrecordMarker...)
	buf = binary.LittleEndian.AppendUint16(buf, 4)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, tag...)
	buf = binary.LittleEndian.AppendUint16(buf, 0)
	return append(buf, data...)
}

// encodeRecord builds a record with the game's header layout around the
// given subrecord data region.
func encodeRecord(game GameId, tag string, flags, formID uint32, data []byte) []byte {
	buf := []byte(tag)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	if game == Morrowind {
		buf = binary.LittleEndian.AppendUint32(buf, 0) // header1
		buf = binary.LittleEndian.AppendUint32(buf, flags)
	} else {
		buf = binary.LittleEndian.AppendUint32(buf, flags)
		buf = binary.LittleEndian.AppendUint32(buf, formID)
		buf = binary.LittleEndian.AppendUint32(buf, 0) // VCS info
		if game != Oblivion {
			buf = binary.LittleEndian.AppendUint16(buf, 44) // internal version
			buf = binary.LittleEndian.AppendUint16(buf, 0)
		}
	}
	return append(buf, data...)
}

// encodeGroup wraps contents in a GRUP envelope.
func encodeGroup(game GameId, label string, groupKind int32, contents []byte) []byte {
	buf := []byte(groupType)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(game.groupHeaderLength()+len(contents)))
	buf = append(buf, label...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(groupKind))
	buf = binary.LittleEndian.AppendUint32(buf, 0) // stamp
	if game != Oblivion {
		buf = binary.LittleEndian.AppendUint32(buf, 0) // version, unknown
	}
	return append(buf, contents...)
}

// deflatePayload compresses payload as raw DEFLATE and prepends the
// little-endian uncompressed-size hint, matching the on-disk layout of
// compressed subrecord data.
func deflatePayload(t *testing.T, payload []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		t.Fatalf("create flate writer: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}

	out := binary.LittleEndian.AppendUint32(nil, uint32(len(payload)))
	return append(out, buf.Bytes()...)
}
