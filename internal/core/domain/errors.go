package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedEquipmentType = errors.New("unsupported equipment type")
	ErrMalformedLabel           = errors.New("malformed equipment label")
	ErrCatalogLookup            = errors.New("catalog lookup failed")
	ErrNotFound                 = errors.New("not found")
	ErrInvalidInput             = errors.New("invalid input")
	ErrTemporary                = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// LabelError describes why an equipment label could not be resolved to a slot.
type LabelError struct {
	Label  string
	Reason string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("label %q: %s", e.Label, e.Reason)
}

func (e *LabelError) Unwrap() error {
	return ErrMalformedLabel
}
