package entity

import "errors"

// ErrBlankUID is returned when an identifier is empty or blank.
var ErrBlankUID = errors.New("entity.blank_uid")
