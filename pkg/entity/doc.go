// Package entity defines the record shape shared by features and properties:
// a unique identifier, creation and modification dates, an optional owner and
// an optional description.
//
// Concrete types embed Base and implement Clone:
//
//	type Feature struct {
//		entity.Base
//		Enabled bool
//	}
//
//	func (f *Feature) Clone() *Feature { c := *f; return &c }
//
// Dates are owned by the repository engine (see package repository), which
// stamps them through Touch on create and update. The identifier is immutable
// once the record has been created.
package entity
