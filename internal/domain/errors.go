package domain

import "github.com/cockroachdb/errors"

// Error taxonomy surfaced to callers. Check with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidRange = errors.New("invalid range")
	ErrValidation   = errors.New("validation failed")
	ErrStorageFault = errors.New("storage fault")
)

func validationf(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

func rangef(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidRange, format, args...)
}

// StorageFault wraps a persistence error so callers can classify it as ErrStorageFault
// while keeping the original cause in the chain.
func StorageFault(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorageFault) {
		return errors.Wrap(err, op)
	}
	return errors.Mark(errors.Wrap(err, op), ErrStorageFault)
}

// RoomNotFound reports an unknown room type id.
func RoomNotFound(id string) error {
	return errors.Wrapf(ErrNotFound, "room type %q", id)
}
