// Package section implements the palette-indirected 16x16x16 block
// section and its 4x4x4 biome counterpart: the Empty / Single / Full
// tagged-variant store from spec §3/§4.2.
package section

import (
	"strconv"

	"github.com/go-mclib/server/internal/key"
)

// StateValue is one property value inside a placed block's state map.
type StateValue struct {
	kind stateKind
	str  string
	i32  int32
	f32  float32
	b    bool
}

type stateKind uint8

const (
	stateString stateKind = iota
	stateInt
	stateFloat
	stateBool
)

func StringValue(s string) StateValue { return StateValue{kind: stateString, str: s} }
func IntValue(v int32) StateValue     { return StateValue{kind: stateInt, i32: v} }
func FloatValue(v float32) StateValue { return StateValue{kind: stateFloat, f32: v} }
func BoolValue(v bool) StateValue     { return StateValue{kind: stateBool, b: v} }

// AsString, AsInt32, AsFloat32, and AsBool expose the value's
// underlying Go representation along with whether it actually holds
// that kind, so callers outside this package (internal/world/persist's
// NBT bridge) can serialize a StateValue without reaching into its
// unexported fields.
func (v StateValue) AsString() (string, bool)   { return v.str, v.kind == stateString }
func (v StateValue) AsInt32() (int32, bool)     { return v.i32, v.kind == stateInt }
func (v StateValue) AsFloat32() (float32, bool) { return v.f32, v.kind == stateFloat }
func (v StateValue) AsBool() (bool, bool)       { return v.b, v.kind == stateBool }

// String renders the value for palette-entry NBT encoding.
func (v StateValue) String() string {
	switch v.kind {
	case stateString:
		return v.str
	case stateInt:
		return strconv.FormatInt(int64(v.i32), 10)
	case stateFloat:
		return strconv.FormatFloat(float64(v.f32), 'g', -1, 32)
	case stateBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// PlacedBlock is a block identity plus a deviation from its default
// state, per spec §3 ("B is a placed block").
type PlacedBlock struct {
	Identity key.Key
	State    map[string]StateValue
}

// IsAir reports whether this is the vanilla air block.
func (b PlacedBlock) IsAir() bool {
	return b.Identity.IsZero() || b.Identity.Equal(key.Vanilla("air"))
}

// Air is the canonical empty placed block.
var Air = PlacedBlock{Identity: key.Vanilla("air")}

// Equal compares identity and state map by value.
func (b PlacedBlock) Equal(other PlacedBlock) bool {
	if !b.Identity.Equal(other.Identity) {
		return false
	}
	if len(b.State) != len(other.State) {
		return false
	}
	for k, v := range b.State {
		ov, ok := other.State[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
