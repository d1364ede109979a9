// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"errors"
	"testing"
)

func weaponRecord(game GameId, formID uint32, editorID string) []byte {
	var data []byte
	data = appendSubrecord(data, game, "EDID", append([]byte(editorID), 0))
	return encodeRecord(game, "WEAP", 0, formID, data)
}

func TestParseGroup(t *testing.T) {
	var contents []byte
	contents = append(contents, weaponRecord(Skyrim, 0x00000001, "IronSword")...)
	contents = append(contents, weaponRecord(Skyrim, 0x00000002, "IronDagger")...)
	input := encodeGroup(Skyrim, "WEAP", 0, contents)

	group, rest, err := ParseGroup(input, Skyrim)
	if err != nil {
		t.Fatalf("parse group: %v", err)
	}

	if group.Label != "WEAP" {
		t.Errorf("label = %q, want %q", group.Label, "WEAP")
	}
	if group.GroupType != 0 {
		t.Errorf("group type = %d, want 0", group.GroupType)
	}
	if len(group.Records) != 2 {
		t.Errorf("group has %d records, want 2", len(group.Records))
	}
	if len(rest) != 0 {
		t.Errorf("remaining input has %d bytes, want 0", len(rest))
	}
}

func TestParseGroupNested(t *testing.T) {
	inner := encodeGroup(Skyrim, "\x01\x00\x00\x00", 2,
		weaponRecord(Skyrim, 0x00000003, "SteelSword"))

	var contents []byte
	contents = append(contents, weaponRecord(Skyrim, 0x00000001, "IronSword")...)
	contents = append(contents, inner...)
	input := encodeGroup(Skyrim, "WEAP", 0, contents)

	group, _, err := ParseGroup(input, Skyrim)
	if err != nil {
		t.Fatalf("parse group: %v", err)
	}

	if len(group.Records) != 1 || len(group.Groups) != 1 {
		t.Fatalf("group has %d records and %d subgroups, want 1 and 1",
			len(group.Records), len(group.Groups))
	}
	if len(group.Groups[0].Records) != 1 {
		t.Errorf("nested group has %d records, want 1", len(group.Groups[0].Records))
	}

	var seen []string
	group.walkRecords(func(r *Record) {
		if edid, ok := r.Subrecord("EDID"); ok {
			seen = append(seen, trimNul(edid))
		}
	})
	if len(seen) != 2 || seen[0] != "IronSword" || seen[1] != "SteelSword" {
		t.Errorf("walked records = %v", seen)
	}
}

func TestParseGroupOblivionHeader(t *testing.T) {
	input := encodeGroup(Oblivion, "CLOT", 0, weaponRecord(Oblivion, 7, "Shirt"))

	group, rest, err := ParseGroup(input, Oblivion)
	if err != nil {
		t.Fatalf("parse group: %v", err)
	}
	if group.Label != "CLOT" || len(group.Records) != 1 || len(rest) != 0 {
		t.Errorf("label = %q, records = %d, rest = %d",
			group.Label, len(group.Records), len(rest))
	}
}

func TestParseGroupEmpty(t *testing.T) {
	group, rest, err := ParseGroup(encodeGroup(Skyrim, "KYWD", 0, nil), Skyrim)
	if err != nil {
		t.Fatalf("parse group: %v", err)
	}
	if len(group.Records) != 0 || len(group.Groups) != 0 || len(rest) != 0 {
		t.Errorf("empty group parsed as %d records, %d subgroups, %d rest bytes",
			len(group.Records), len(group.Groups), len(rest))
	}
}

func TestParseGroupErrors(t *testing.T) {
	valid := encodeGroup(Skyrim, "WEAP", 0, weaponRecord(Skyrim, 1, "IronSword"))

	if _, _, err := ParseGroup(valid[:10], Skyrim); !errors.Is(err, ErrIncomplete) {
		t.Errorf("truncated header: err = %v, want ErrIncomplete", err)
	}
	if _, _, err := ParseGroup(valid[:len(valid)-1], Skyrim); !errors.Is(err, ErrIncomplete) {
		t.Errorf("truncated contents: err = %v, want ErrIncomplete", err)
	}

	badMagic := append([]byte{}, valid...)
	copy(badMagic, "GRUB")
	if _, _, err := ParseGroup(badMagic, Skyrim); !errors.Is(err, ErrMalformed) {
		t.Errorf("bad magic: err = %v, want ErrMalformed", err)
	}

	undersized := append([]byte{}, valid...)
	undersized[4] = 10 // total size below the header size
	undersized[5] = 0
	if _, _, err := ParseGroup(undersized, Skyrim); !errors.Is(err, ErrMalformed) {
		t.Errorf("undersized: err = %v, want ErrMalformed", err)
	}
}
