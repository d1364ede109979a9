// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic tag opening every group envelope.
const groupType = "GRUP"

// Group is a GRUP envelope: a sized container of records and nested groups.
// Groups exist in every game after Morrowind; Morrowind plugins are a flat
// sequence of records.
//
// Label is the 4-byte group label, whose interpretation depends on
// GroupType: a record type tag for top-level groups, packed coordinates or
// IDs for the interior group kinds.
type Group struct {
	Label     string
	GroupType int32
	Records   []Record
	Groups    []Group
}

// ParseGroup parses one group from the start of input and returns it
// together with the unconsumed remainder of input. The group's declared
// total size includes its own header; records and nested groups must tile
// the rest of it exactly.
func ParseGroup(input []byte, game GameId) (Group, []byte, error) {
	group, rest, err := parseGroup(input, game, false)
	if err != nil {
		return Group{}, nil, err
	}
	return group, rest, nil
}

func parseGroup(input []byte, game GameId, skipSubrecords bool) (Group, []byte, error) {
	headerLength := game.groupHeaderLength()
	if len(input) < headerLength {
		return Group{}, nil, fmt.Errorf("%w: need %d bytes for group header, have %d",
			ErrIncomplete, headerLength, len(input))
	}

	if !bytes.Equal(input[:4], []byte(groupType)) {
		return Group{}, nil, fmt.Errorf("%w: group starts with % X, want %q",
			ErrMalformed, input[:4], groupType)
	}

	totalSize := binary.LittleEndian.Uint32(input[4:])
	if totalSize < uint32(headerLength) {
		return Group{}, nil, fmt.Errorf("%w: group size %d is smaller than its %d-byte header",
			ErrMalformed, totalSize, headerLength)
	}
	if uint32(len(input)) < totalSize {
		return Group{}, nil, fmt.Errorf("%w: need %d bytes for group, have %d",
			ErrIncomplete, totalSize, len(input))
	}

	label, err := decodeTypeTag(input[8:])
	if err != nil {
		return Group{}, nil, err
	}

	group := Group{
		Label:     label,
		GroupType: int32(binary.LittleEndian.Uint32(input[12:])),
	}

	contents := input[headerLength:totalSize]
	for len(contents) > 0 {
		if len(contents) >= 4 && bytes.Equal(contents[:4], []byte(groupType)) {
			nested, rest, err := parseGroup(contents, game, skipSubrecords)
			if err != nil {
				return Group{}, nil, err
			}
			group.Groups = append(group.Groups, nested)
			contents = rest
			continue
		}

		record, rest, err := parseRecord(contents, game, skipSubrecords)
		if err != nil {
			return Group{}, nil, err
		}
		group.Records = append(group.Records, record)
		contents = rest
	}

	return group, input[totalSize:], nil
}

// walkRecords calls fn for every record in the group, including records of
// nested groups, in file order.
func (g *Group) walkRecords(fn func(*Record)) {
	for i := range g.Records {
		fn(&g.Records[i])
	}
	for i := range g.Groups {
		g.Groups[i].walkRecords(fn)
	}
}
