// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"encoding/binary"
	"fmt"
)

// Record header flags
const (
	// RecordFlagMaster marks the plugin as a master file. Only meaningful on
	// the header record of non-Morrowind games.
	RecordFlagMaster = 0x00000001

	// RecordFlagLightMaster marks a light master plugin (Fallout 4).
	RecordFlagLightMaster = 0x00000200

	// RecordFlagCompressed marks a record whose subrecord payloads are
	// DEFLATE-compressed. Never set on Morrowind records.
	RecordFlagCompressed = 0x00040000
)

// Type tag of the subrecord that carries the true length of the following
// large subrecord.
const largeSubrecordMarker = "XXXX"

// Record is a typed container of subrecords.
//
// FormID is zero for Morrowind, which predates form IDs; Morrowind records
// are identified by a NAME subrecord instead.
type Record struct {
	Type       string
	Flags      uint32
	FormID     uint32
	Subrecords []Subrecord
}

// ParseRecord parses one record from the start of input and returns it
// together with the unconsumed remainder of input.
//
// The record header layout depends on the game: Morrowind uses a 16-byte
// header with no form ID, Oblivion a 20-byte header, and every later game a
// 24-byte header. The header's size field counts only the subrecord data
// that follows it.
func ParseRecord(input []byte, game GameId) (Record, []byte, error) {
	return parseRecord(input, game, false)
}

func parseRecord(input []byte, game GameId, skipSubrecords bool) (Record, []byte, error) {
	headerLength := game.recordHeaderLength()
	if len(input) < headerLength {
		return Record{}, nil, fmt.Errorf("%w: need %d bytes for record header, have %d",
			ErrIncomplete, headerLength, len(input))
	}

	recordType, err := decodeTypeTag(input)
	if err != nil {
		return Record{}, nil, err
	}

	dataLength := binary.LittleEndian.Uint32(input[4:])

	record := Record{Type: recordType}
	if game == Morrowind {
		// type, size, header1, flags
		record.Flags = binary.LittleEndian.Uint32(input[12:])
	} else {
		// type, size, flags, form ID, VCS info, then version fields on Skyrim+
		record.Flags = binary.LittleEndian.Uint32(input[8:])
		record.FormID = binary.LittleEndian.Uint32(input[12:])
	}

	rest := input[headerLength:]
	if uint32(len(rest)) < dataLength {
		return Record{}, nil, fmt.Errorf("%w: need %d bytes for %q record data, have %d",
			ErrIncomplete, dataLength, recordType, len(rest))
	}

	if !skipSubrecords {
		record.Subrecords, err = parseSubrecords(rest[:dataLength], game, record.HasFlag(RecordFlagCompressed))
		if err != nil {
			return Record{}, nil, fmt.Errorf("record %q: %w", recordType, err)
		}
	}

	return record, rest[dataLength:], nil
}

// parseSubrecords parses the record's data region, which subrecords must
// tile exactly. An XXXX subrecord supplies the true length of the subrecord
// that follows it and is itself dropped.
func parseSubrecords(data []byte, game GameId, compressed bool) ([]Subrecord, error) {
	var subrecords []Subrecord
	var dataLengthOverride uint32

	for len(data) > 0 {
		subrecord, rest, err := ParseSubrecord(data, game, dataLengthOverride, compressed)
		if err != nil {
			return nil, err
		}
		data = rest
		dataLengthOverride = 0

		if subrecord.Type == largeSubrecordMarker && game != Morrowind {
			if len(subrecord.Data) != 4 {
				return nil, fmt.Errorf("%w: XXXX subrecord has %d data bytes, want 4",
					ErrMalformed, len(subrecord.Data))
			}
			dataLengthOverride = binary.LittleEndian.Uint32(subrecord.Data)
			continue
		}

		subrecords = append(subrecords, subrecord)
	}

	return subrecords, nil
}

// Subrecord returns the payload of the first subrecord with the given type
// tag, or false if the record has none.
func (r *Record) Subrecord(subrecordType string) ([]byte, bool) {
	for i := range r.Subrecords {
		if r.Subrecords[i].Type == subrecordType {
			return r.Subrecords[i].Data, true
		}
	}
	return nil, false
}

// HasFlag reports whether the record header has the given flag bit set.
func (r *Record) HasFlag(flag uint32) bool {
	return r.Flags&flag != 0
}
