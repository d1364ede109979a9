// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package espm provides pure Go support for reading Elder Scrolls plugin files
(ESP/ESM/ESL).

Plugin files are the mod format used by Bethesda's role-playing games, from
Morrowind through Fallout 4. A plugin is a header record followed by game
data: a flat sequence of records for Morrowind, a sequence of GRUP containers
for every later game. Records in turn hold subrecords, the smallest typed
unit of the format.

# Features

  - Subrecord parsing for all three wire variants (Morrowind 32-bit lengths,
    later games' 16-bit lengths, and presized large subrecords)
  - Transparent decompression of DEFLATE-compressed record data
  - Record and group parsing with per-game header layouts
  - Plugin-level queries: masters, description, header version, master and
    light-master detection, record counts and overlap checks
  - FormID resolution against a plugin's master list

# Basic Usage

Reading a plugin's metadata:

	plugin, err := espm.OpenHeader("Dragonborn.esm", espm.Skyrim)
	if err != nil {
		log.Fatal(err)
	}

	masters, err := plugin.Masters()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(plugin.IsMaster(), masters)

Comparing the records of two plugins:

	a, _ := espm.Open("ModA.esp", espm.Skyrim)
	b, _ := espm.Open("ModB.esp", espm.Skyrim)
	fmt.Println(a.OverlapsWith(b))

Parsing a single subrecord out of a record's data region:

	sub, rest, err := espm.ParseSubrecord(data, espm.Skyrim, 0, false)
	if err != nil {
		log.Fatal(err)
	}
	payload, err := sub.Decompress()

# Supported Games

Morrowind, Oblivion, Skyrim, Fallout 3, Fallout: New Vegas and Fallout 4.
Only Morrowind changes the subrecord wire format; the other games differ in
record and group header layouts.

# Limitations

This package focuses on reading plugin structure:

  - No support for writing or modifying plugins
  - No interpretation of record-specific subrecord schemas
  - No load order management or game detection
  - No BSA/BA2 archive support
*/
package espm
