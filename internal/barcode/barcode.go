// Package barcode encodes and decodes item barcodes of the form
// PREFIX_DD_MM_YY_G<digit>_NNNN, e.g. PIPI_08_07_25_G2_0001.
package barcode

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Parse errors. Callers match them with errors.Is.
var (
	ErrFormat            = errors.New("malformed barcode")
	ErrUnknownType       = errors.New("unknown item type")
	ErrInvalidDate       = errors.New("invalid label date")
	ErrInvalidGeneration = errors.New("invalid generation")
)

const (
	prefixLen   = 4
	separator   = "_"
	itemParts   = 6
	batchParts  = 5
	baseYear    = 2000
	MaxSequence = 9999
)

// Code is a decoded item barcode.
type Code struct {
	Type       Type
	Day        int
	Month      int
	Year       int // two-digit year, 2000+Year
	Generation int
	Sequence   int
}

// BatchKey groups items that share a type, label date and generation.
// Sequence numbers are unique within a key.
type BatchKey struct {
	Type       Type
	Day        int
	Month      int
	Year       int
	Generation int
}

// Encode validates the fields and returns the canonical barcode string.
func Encode(t Type, day, month, year2, generation, sequence int) (string, error) {
	c := Code{Type: t, Day: day, Month: month, Year: year2, Generation: generation, Sequence: sequence}
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c.String(), nil
}

// Parse decodes a barcode. The prefix is matched case-insensitively; every
// other segment must match the canonical layout exactly.
func Parse(s string) (Code, error) {
	parts := strings.Split(s, separator)
	if len(parts) != itemParts {
		return Code{}, fmt.Errorf("%w: %q has %d segments, want %d", ErrFormat, s, len(parts), itemParts)
	}
	if !isDigits(parts[5], 4) {
		return Code{}, fmt.Errorf("%w: sequence %q must be 4 digits", ErrFormat, parts[5])
	}
	key, err := parseKey(parts[:batchParts])
	if err != nil {
		return Code{}, err
	}
	return key.Item(atoi(parts[5])), nil
}

// ParseBatch decodes either a batch barcode (PREFIX_DD_MM_YY_G<digit>) or a
// full item barcode and returns the batch key it belongs to.
func ParseBatch(s string) (BatchKey, error) {
	parts := strings.Split(s, separator)
	switch len(parts) {
	case batchParts:
		return parseKey(parts)
	case itemParts:
		c, err := Parse(s)
		if err != nil {
			return BatchKey{}, err
		}
		return c.Batch(), nil
	default:
		return BatchKey{}, fmt.Errorf("%w: %q has %d segments, want %d or %d", ErrFormat, s, len(parts), batchParts, itemParts)
	}
}

// parseKey decodes the first five segments. Structural checks run before
// semantic ones so a malformed segment is always reported as ErrFormat.
func parseKey(parts []string) (BatchKey, error) {
	prefix, dd, mm, yy, gen := parts[0], parts[1], parts[2], parts[3], parts[4]

	if len(prefix) != prefixLen {
		return BatchKey{}, fmt.Errorf("%w: prefix %q must be %d characters", ErrFormat, prefix, prefixLen)
	}
	for _, seg := range []string{dd, mm, yy} {
		if !isDigits(seg, 2) {
			return BatchKey{}, fmt.Errorf("%w: date segment %q must be 2 digits", ErrFormat, seg)
		}
	}
	if len(gen) != 2 || gen[0] != 'G' || !isDigits(gen[1:], 1) {
		return BatchKey{}, fmt.Errorf("%w: generation %q must be G followed by one digit", ErrFormat, gen)
	}

	t, err := ParseType(prefix)
	if err != nil {
		return BatchKey{}, err
	}
	key := BatchKey{
		Type:       t,
		Day:        atoi(dd),
		Month:      atoi(mm),
		Year:       atoi(yy),
		Generation: atoi(gen[1:]),
	}
	if err := key.Validate(); err != nil {
		return BatchKey{}, err
	}
	return key, nil
}

// Validate checks every field of the code.
func (c Code) Validate() error {
	if err := c.Batch().Validate(); err != nil {
		return err
	}
	if c.Sequence < 0 || c.Sequence > MaxSequence {
		return fmt.Errorf("%w: sequence %d out of range 0-%d", ErrFormat, c.Sequence, MaxSequence)
	}
	return nil
}

// String returns the canonical encoding. The result is only meaningful for
// a code that passes Validate.
func (c Code) String() string {
	return fmt.Sprintf("%s_%04d", c.Batch().String(), c.Sequence)
}

// Batch returns the batch key of the code.
func (c Code) Batch() BatchKey {
	return BatchKey{Type: c.Type, Day: c.Day, Month: c.Month, Year: c.Year, Generation: c.Generation}
}

// LabelDate returns the label date as a UTC time at midnight.
func (c Code) LabelDate() time.Time {
	return c.Batch().LabelDate()
}

// Validate checks the type, date and generation.
func (k BatchKey) Validate() error {
	if !k.Type.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownType, k.Type)
	}
	if !validDate(k.Day, k.Month, k.Year) {
		return fmt.Errorf("%w: %02d.%02d.%02d", ErrInvalidDate, k.Day, k.Month, k.Year)
	}
	if k.Generation < 1 || k.Generation > 9 {
		return fmt.Errorf("%w: %d must be 1-9", ErrInvalidGeneration, k.Generation)
	}
	return nil
}

// String returns the batch barcode, e.g. PIPI_08_07_25_G2.
func (k BatchKey) String() string {
	return fmt.Sprintf("%s_%02d_%02d_%02d_G%d", k.Type.Prefix(), k.Day, k.Month, k.Year, k.Generation)
}

// Item returns the code of the item with the given sequence in this batch.
func (k BatchKey) Item(sequence int) Code {
	return Code{Type: k.Type, Day: k.Day, Month: k.Month, Year: k.Year, Generation: k.Generation, Sequence: sequence}
}

// LabelDate returns the label date as a UTC time at midnight.
func (k BatchKey) LabelDate() time.Time {
	return time.Date(baseYear+k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, time.UTC)
}

func validDate(day, month, year2 int) bool {
	if year2 < 0 || year2 > 99 || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	d := time.Date(baseYear+year2, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Day() == day && int(d.Month()) == month
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// atoi converts a string already checked by isDigits.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
