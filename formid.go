// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package espm

import (
	"encoding/binary"
	"strings"

	"github.com/dchest/siphash"
)

// Fixed siphash keys for hashed form IDs. The values are arbitrary; they
// only need to be the same for every plugin in a comparison.
const (
	formIdHashKey0 = 0x8c1f36a27d4e5b90
	formIdHashKey1 = 0x53d0f9e6417ab28c
)

// FormId identifies a record and the plugin that owns it.
//
// The high byte of a raw on-disk form ID is the mod index: an index into the
// plugin's master list. A form whose mod index points at a master is an
// override of that master's record; any other mod index means the form is
// new in the plugin itself.
type FormId struct {
	ObjectIndex uint32
	PluginName  string
}

// NewFormId resolves a raw form ID read from a record header against the
// parent plugin's master list.
func NewFormId(raw uint32, parentPlugin string, masters []string) FormId {
	modIndex := raw >> 24
	name := parentPlugin
	if modIndex < uint32(len(masters)) {
		name = masters[modIndex]
	}
	return FormId{
		ObjectIndex: raw & 0x00FFFFFF,
		PluginName:  name,
	}
}

// Equal reports whether two form IDs refer to the same record. Plugin names
// compare case-insensitively, as plugin filenames do on the platforms these
// games ship on.
func (f FormId) Equal(other FormId) bool {
	return f.ObjectIndex == other.ObjectIndex &&
		strings.EqualFold(f.PluginName, other.PluginName)
}

// IsOverrideOf reports whether the form overrides a record from the named
// plugin rather than introducing a new one.
func (f FormId) IsOverrideOf(plugin string) bool {
	return strings.EqualFold(f.PluginName, plugin)
}

// hashed collapses the form ID into a single uint64 so plugin-wide form sets
// can be sorted and searched cheaply. The owning plugin name is case-folded
// before hashing so that lookups agree with Equal.
func (f FormId) hashed() uint64 {
	buf := make([]byte, 0, len(f.PluginName)+4)
	buf = append(buf, strings.ToLower(f.PluginName)...)
	buf = binary.LittleEndian.AppendUint32(buf, f.ObjectIndex)
	return siphash.Hash(formIdHashKey0, formIdHashKey1, buf)
}

// hashBytes hashes an arbitrary record identifier. Morrowind records have no
// form IDs and are identified by their NAME subrecord payload instead.
func hashBytes(data []byte) uint64 {
	return siphash.Hash(formIdHashKey0, formIdHashKey1, data)
}
