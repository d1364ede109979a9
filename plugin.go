// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

// Morrowind's TES3 HEDR subrecord layout: version f32, unknown u32, author
// [32]byte, description [256]byte, record count u32.
const (
	tes3DescriptionOffset = 40
	tes3DescriptionLength = 256
	tes3HeaderLength      = 300
)

// Plugin is a parsed plugin file.
//
// A Plugin built by ParsePluginHeader or OpenHeader carries only the header
// record: metadata queries work, record queries report an empty plugin.
type Plugin struct {
	game          GameId
	path          string
	header        Record
	recordIds     []uint64 // sorted hashed form IDs, header record excluded
	overrideCount int      // records owned by a master rather than the plugin
}

// Open reads and fully parses the plugin file at path.
func Open(path string, game GameId) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin: %w", err)
	}
	return ParsePlugin(data, game, filepath.Base(path))
}

// OpenHeader reads the plugin file at path and parses only its header
// record. This is much cheaper than Open for metadata queries on large
// plugins.
func OpenHeader(path string, game GameId) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin: %w", err)
	}
	return ParsePluginHeader(data, game, filepath.Base(path))
}

// ParsePlugin parses a complete plugin from data. The filename is recorded
// for Filename and for the filename-based master checks; pass the base name
// of the file the data came from.
func ParsePlugin(data []byte, game GameId, filename string) (*Plugin, error) {
	plugin, rest, err := parseHeaderRecord(data, game, filename)
	if err != nil {
		return nil, err
	}

	masters, err := plugin.Masters()
	if err != nil {
		return nil, err
	}

	if game == Morrowind {
		err = plugin.collectMorrowindRecords(rest)
	} else {
		err = plugin.collectGroupedRecords(rest, masters)
	}
	if err != nil {
		return nil, err
	}

	slices.Sort(plugin.recordIds)
	return plugin, nil
}

// ParsePluginHeader parses only the plugin's header record from data.
func ParsePluginHeader(data []byte, game GameId, filename string) (*Plugin, error) {
	plugin, _, err := parseHeaderRecord(data, game, filename)
	if err != nil {
		return nil, err
	}
	return plugin, nil
}

func parseHeaderRecord(data []byte, game GameId, filename string) (*Plugin, []byte, error) {
	// Check the type tag before committing to the game's header layout, so a
	// plugin for the wrong game reports a malformed header rather than a
	// truncation artifact.
	want := game.headerRecordType()
	if len(data) < len(want) {
		return nil, nil, fmt.Errorf("%w: need %d bytes for header record type, have %d",
			ErrIncomplete, len(want), len(data))
	}
	if got := string(data[:len(want)]); got != want {
		return nil, nil, fmt.Errorf("%w: header record type is %q, want %q",
			ErrMalformed, got, want)
	}

	header, rest, err := ParseRecord(data, game)
	if err != nil {
		return nil, nil, fmt.Errorf("parse header record: %w", err)
	}

	return &Plugin{
		game:   game,
		path:   filename,
		header: header,
	}, rest, nil
}

// collectMorrowindRecords walks the flat record sequence of a Morrowind
// plugin. Records are identified by their NAME subrecord; records without
// one (notably the TES3 header's companions) are skipped.
func (p *Plugin) collectMorrowindRecords(data []byte) error {
	for len(data) > 0 {
		record, rest, err := ParseRecord(data, p.game)
		if err != nil {
			return err
		}
		data = rest

		if name, ok := record.Subrecord("NAME"); ok {
			p.recordIds = append(p.recordIds, hashBytes(name))
		}
	}
	return nil
}

// collectGroupedRecords walks the top-level group sequence of a
// non-Morrowind plugin, resolving each record's form ID against the master
// list.
func (p *Plugin) collectGroupedRecords(data []byte, masters []string) error {
	for len(data) > 0 {
		group, rest, err := parseGroup(data, p.game, true)
		if err != nil {
			return err
		}
		data = rest

		group.walkRecords(func(r *Record) {
			formId := NewFormId(r.FormID, p.path, masters)
			if !strings.EqualFold(formId.PluginName, p.path) {
				p.overrideCount++
			}
			p.recordIds = append(p.recordIds, formId.hashed())
		})
	}
	return nil
}

// Game returns the game the plugin was parsed as.
func (p *Plugin) Game() GameId {
	return p.game
}

// Filename returns the plugin's file name as given at parse time.
func (p *Plugin) Filename() string {
	return p.path
}

// Masters returns the plugin's master file names, in load order, from the
// header record's MAST subrecords.
func (p *Plugin) Masters() ([]string, error) {
	var masters []string
	for i := range p.header.Subrecords {
		if p.header.Subrecords[i].Type != "MAST" {
			continue
		}
		data, err := p.header.Subrecords[i].Decompress()
		if err != nil {
			return nil, fmt.Errorf("read MAST subrecord: %w", err)
		}
		masters = append(masters, trimNul(data))
	}
	return masters, nil
}

// Description returns the plugin description from the header record: the
// fixed description field of the TES3 HEDR subrecord for Morrowind, the SNAM
// subrecord for every other game. A missing SNAM is an empty description.
func (p *Plugin) Description() (string, error) {
	if p.game == Morrowind {
		hedr, ok := p.header.Subrecord("HEDR")
		if !ok {
			return "", fmt.Errorf("%w: TES3 header record has no HEDR subrecord", ErrMalformed)
		}
		if len(hedr) < tes3HeaderLength {
			return "", fmt.Errorf("%w: HEDR subrecord is %d bytes, want %d",
				ErrMalformed, len(hedr), tes3HeaderLength)
		}
		return trimNul(hedr[tes3DescriptionOffset : tes3DescriptionOffset+tes3DescriptionLength]), nil
	}

	snam, ok := p.header.Subrecord("SNAM")
	if !ok {
		return "", nil
	}
	return trimNul(snam), nil
}

// HeaderVersion returns the plugin format version from the header record's
// HEDR subrecord.
func (p *Plugin) HeaderVersion() (float32, error) {
	hedr, ok := p.header.Subrecord("HEDR")
	if !ok {
		return 0, fmt.Errorf("%w: header record has no HEDR subrecord", ErrMalformed)
	}
	if len(hedr) < 4 {
		return 0, fmt.Errorf("%w: HEDR subrecord is %d bytes, want at least 4",
			ErrMalformed, len(hedr))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(hedr)), nil
}

// IsMaster reports whether the plugin is a master file. Morrowind's header
// record carries no master flag, so the check falls back to the filename
// extension there.
func (p *Plugin) IsMaster() bool {
	if p.game == Morrowind {
		return hasExtension(p.path, ".esm")
	}
	return p.header.HasFlag(RecordFlagMaster)
}

// IsLightMaster reports whether the plugin is a light master: an .esl file,
// or a Fallout 4 plugin with the light-master header flag.
func (p *Plugin) IsLightMaster() bool {
	if hasExtension(p.path, ".esl") {
		return true
	}
	return p.game == Fallout4 && p.header.HasFlag(RecordFlagLightMaster)
}

// IsEmpty reports whether the plugin contains no records besides its header.
// Header-only plugins report true.
func (p *Plugin) IsEmpty() bool {
	return len(p.recordIds) == 0
}

// RecordCount returns the number of identified records in the plugin, not
// counting the header record.
func (p *Plugin) RecordCount() int {
	return len(p.recordIds)
}

// CountOverrideRecords returns the number of records that override a record
// from one of the plugin's masters rather than introducing a new one.
// Always zero for Morrowind, which has no form IDs to resolve.
func (p *Plugin) CountOverrideRecords() int {
	return p.overrideCount
}

// OverlapsWith reports whether the two plugins define or override any of the
// same records.
func (p *Plugin) OverlapsWith(other *Plugin) bool {
	for _, id := range p.recordIds {
		if _, found := slices.BinarySearch(other.recordIds, id); found {
			return true
		}
	}
	return false
}

// trimNul returns data as a string cut at the first NUL byte.
func trimNul(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

// hasExtension reports whether path has the given extension,
// case-insensitively.
func hasExtension(path string, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}
