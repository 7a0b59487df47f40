package barcode

import (
	"fmt"
	"strings"
)

// Type is the kind of item a barcode identifies, taken from its 4-character prefix.
type Type uint8

// Item types. The zero value is not a valid type.
const (
	PioPino Type = iota + 1
	Chestnut
	KingOyster
	BlueOyster
	PinkOyster
	Lionsmane
	Inventory
	Storage
	Miscellaneous
)

var typeInfo = [...]struct {
	prefix string
	name   string
}{
	PioPino:       {"PIPI", "PioPino"},
	Chestnut:      {"CHNU", "Chestnut"},
	KingOyster:    {"KIOY", "KingOyster"},
	BlueOyster:    {"BLOY", "BlueOyster"},
	PinkOyster:    {"PIOY", "PinkOyster"},
	Lionsmane:     {"LIMA", "Lionsmane"},
	Inventory:     {"INVE", "Inventory"},
	Storage:       {"STOR", "Storage"},
	Miscellaneous: {"MISC", "Miscellaneous"},
}

// Types returns every valid type in declaration order.
func Types() []Type {
	types := make([]Type, 0, len(typeInfo)-1)
	for t := PioPino; t <= Miscellaneous; t++ {
		types = append(types, t)
	}
	return types
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	return t >= PioPino && t <= Miscellaneous
}

// Prefix returns the canonical upper-case barcode prefix, e.g. "PIPI".
func (t Type) Prefix() string {
	if !t.Valid() {
		return ""
	}
	return typeInfo[t].prefix
}

// Name returns the human-readable type name, e.g. "PioPino".
func (t Type) Name() string {
	if !t.Valid() {
		return ""
	}
	return typeInfo[t].name
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return typeInfo[t].name
}

// MarshalText encodes the type as its barcode prefix.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	return []byte(t.Prefix()), nil
}

// UnmarshalText accepts a barcode prefix or a type name.
func (t *Type) UnmarshalText(b []byte) error {
	v, ok := LookupName(string(b))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, b)
	}
	*t = v
	return nil
}

// ParseType maps a barcode prefix to its type. Matching is case-insensitive.
func ParseType(prefix string) (Type, error) {
	if len(prefix) != prefixLen {
		return 0, fmt.Errorf("%w: prefix %q must be %d characters", ErrFormat, prefix, prefixLen)
	}
	for _, t := range Types() {
		if strings.EqualFold(prefix, typeInfo[t].prefix) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, prefix)
}

// LookupName maps a type name such as "KingOyster" or a prefix such as
// "KIOY" to its type, ignoring case.
func LookupName(s string) (Type, bool) {
	for _, t := range Types() {
		if strings.EqualFold(s, typeInfo[t].name) || strings.EqualFold(s, typeInfo[t].prefix) {
			return t, true
		}
	}
	return 0, false
}
