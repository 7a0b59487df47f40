package inventory

import (
	"errors"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/db"
	"github.com/sporetrack/sporetrack/internal/store"
)

// State machine and allocation errors.
var (
	ErrAlreadyInStock    = errors.New("item is already in stock")
	ErrAlreadyCheckedOut = errors.New("item is already checked out")
	ErrNotInStock        = errors.New("item is not in stock")
	ErrCapacity          = errors.New("batch would exceed sequence capacity")
	ErrInvalidCount      = errors.New("batch count must be positive")
)

// Errors from lower layers, re-exported so callers only need this package.
var (
	ErrFormat            = barcode.ErrFormat
	ErrUnknownType       = barcode.ErrUnknownType
	ErrInvalidDate       = barcode.ErrInvalidDate
	ErrInvalidGeneration = barcode.ErrInvalidGeneration

	ErrNotFound          = store.ErrNotFound
	ErrLocationNotFound  = store.ErrLocationNotFound
	ErrDuplicateLocation = store.ErrDuplicateLocation
	ErrInvalidLocation   = store.ErrInvalidLocation

	ErrCorrupt = db.ErrCorrupt
)
