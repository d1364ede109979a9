// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Subrecord wire format constants
const (
	// Length of a subrecord type tag, e.g. "DATA" or "CNAM"
	subrecordTypeLength = 4

	// Header sizes: type tag plus the on-wire length field
	subrecordHeaderLengthLong  = subrecordTypeLength + 4 // Morrowind, 32-bit length
	subrecordHeaderLengthShort = subrecordTypeLength + 2 // later games, 16-bit length
)

// Parse errors. Wrapped errors are matched with errors.Is.
var (
	// ErrIncomplete reports input too short to decode a required field or a
	// payload of the claimed length. The caller may read more bytes and retry.
	ErrIncomplete = errors.New("incomplete input")

	// ErrMalformed reports input whose fixed fields cannot be decoded, such
	// as a type tag that is not valid UTF-8.
	ErrMalformed = errors.New("malformed input")
)

// Subrecord is the smallest typed unit inside a plugin file: a 4-character
// type tag followed by a length-prefixed payload.
//
// Data holds the payload exactly as read from the wire. If Compressed is
// true it starts with a 4-byte little-endian uncompressed-size hint followed
// by a raw DEFLATE stream; use Decompress to obtain the usable payload.
// A Subrecord is read-only after construction.
type Subrecord struct {
	Type       string
	Data       []byte
	Compressed bool
}

// ParseSubrecord parses one subrecord from the start of input and returns it
// together with the unconsumed remainder of input.
//
// Three wire variants exist. Morrowind subrecords carry a 32-bit payload
// length; every later game uses a 16-bit length. For certain large records
// the 16-bit field on disk is a sentinel and the true payload length travels
// out of band in the enclosing record header: callers pass it as a non-zero
// dataLengthOverride, and the on-wire length field is consumed but ignored.
// The override is ignored entirely for Morrowind.
//
// compressed is recorded on the result verbatim; the payload is not touched.
// The caller derives it from the enclosing record's compression flag.
func ParseSubrecord(input []byte, game GameId, dataLengthOverride uint32, compressed bool) (Subrecord, []byte, error) {
	if game == Morrowind {
		return parseLongSubrecord(input, compressed)
	}
	if dataLengthOverride != 0 {
		return parsePresizedSubrecord(input, dataLengthOverride, compressed)
	}
	return parseShortSubrecord(input, compressed)
}

// parseLongSubrecord decodes the Morrowind layout:
// type[4] length_u32_le[4] payload[length].
func parseLongSubrecord(input []byte, compressed bool) (Subrecord, []byte, error) {
	if len(input) < subrecordHeaderLengthLong {
		return Subrecord{}, nil, fmt.Errorf("%w: need %d bytes for subrecord header, have %d",
			ErrIncomplete, subrecordHeaderLengthLong, len(input))
	}

	subrecordType, err := decodeTypeTag(input)
	if err != nil {
		return Subrecord{}, nil, err
	}

	dataLength := binary.LittleEndian.Uint32(input[subrecordTypeLength:])
	return takePayload(input[subrecordHeaderLengthLong:], subrecordType, dataLength, compressed)
}

// parseShortSubrecord decodes the post-Morrowind layout:
// type[4] length_u16_le[2] payload[length].
func parseShortSubrecord(input []byte, compressed bool) (Subrecord, []byte, error) {
	if len(input) < subrecordHeaderLengthShort {
		return Subrecord{}, nil, fmt.Errorf("%w: need %d bytes for subrecord header, have %d",
			ErrIncomplete, subrecordHeaderLengthShort, len(input))
	}

	subrecordType, err := decodeTypeTag(input)
	if err != nil {
		return Subrecord{}, nil, err
	}

	dataLength := uint32(binary.LittleEndian.Uint16(input[subrecordTypeLength:]))
	return takePayload(input[subrecordHeaderLengthShort:], subrecordType, dataLength, compressed)
}

// parsePresizedSubrecord decodes a large subrecord whose true payload length
// came from the enclosing record header. The on-wire 16-bit length field is
// still consumed, but its value is discarded.
func parsePresizedSubrecord(input []byte, dataLength uint32, compressed bool) (Subrecord, []byte, error) {
	if len(input) < subrecordHeaderLengthShort {
		return Subrecord{}, nil, fmt.Errorf("%w: need %d bytes for subrecord header, have %d",
			ErrIncomplete, subrecordHeaderLengthShort, len(input))
	}

	subrecordType, err := decodeTypeTag(input)
	if err != nil {
		return Subrecord{}, nil, err
	}

	return takePayload(input[subrecordHeaderLengthShort:], subrecordType, dataLength, compressed)
}

// decodeTypeTag decodes the leading 4 bytes of input as a text tag.
// Interior NUL bytes are fine; invalid UTF-8 is not.
func decodeTypeTag(input []byte) (string, error) {
	tag := input[:subrecordTypeLength]
	if !utf8.Valid(tag) {
		return "", fmt.Errorf("%w: subrecord type % X is not valid UTF-8", ErrMalformed, tag)
	}
	return string(tag), nil
}

// takePayload copies dataLength bytes off the front of input into a new
// Subrecord and returns the remainder.
func takePayload(input []byte, subrecordType string, dataLength uint32, compressed bool) (Subrecord, []byte, error) {
	if uint32(len(input)) < dataLength {
		return Subrecord{}, nil, fmt.Errorf("%w: need %d bytes for %q payload, have %d",
			ErrIncomplete, dataLength, subrecordType, len(input))
	}

	data := make([]byte, dataLength)
	copy(data, input[:dataLength])

	return Subrecord{
		Type:       subrecordType,
		Data:       data,
		Compressed: compressed,
	}, input[dataLength:], nil
}
