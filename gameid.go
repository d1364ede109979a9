// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

// GameId identifies which game a plugin file belongs to.
//
// The game cannot be detected from the file itself; callers must know which
// game a plugin was authored for. Morrowind uses a different wire format for
// subrecords, and the later games differ in record and group header layouts.
type GameId int

const (
	Oblivion GameId = iota
	Skyrim
	Fallout3
	FalloutNV
	Morrowind
	Fallout4
)

// String returns the game's name.
func (g GameId) String() string {
	switch g {
	case Oblivion:
		return "Oblivion"
	case Skyrim:
		return "Skyrim"
	case Fallout3:
		return "Fallout3"
	case FalloutNV:
		return "FalloutNV"
	case Morrowind:
		return "Morrowind"
	case Fallout4:
		return "Fallout4"
	default:
		return "Unknown"
	}
}

// headerRecordType returns the required type tag of a plugin's first record.
func (g GameId) headerRecordType() string {
	if g == Morrowind {
		return "TES3"
	}
	return "TES4"
}

// recordHeaderLength returns the full record header size in bytes, including
// the 4-byte type tag.
func (g GameId) recordHeaderLength() int {
	switch g {
	case Morrowind:
		return 16 // type, size, header1, flags
	case Oblivion:
		return 20 // type, size, flags, form ID, VCS info
	default:
		return 24 // Skyrim+ adds a version and an unknown field
	}
}

// groupHeaderLength returns the full GRUP header size in bytes, including
// the 4-byte "GRUP" tag. Morrowind plugins contain no groups.
func (g GameId) groupHeaderLength() int {
	if g == Oblivion {
		return 20 // tag, total size, label, group type, stamp
	}
	return 24 // Skyrim+ widens the stamp block to 12 bytes
}
