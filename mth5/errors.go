// Package mth5 implements an MTH5-style container for magnetotelluric
// instrument-response data on top of the embedded hdf5 store.
//
// The container holds a registry of named filters under
// /Survey/Filters/{zpk,coefficient,time_delay,fap}/<name>, and a summary of
// the metadata standard under /Survey/Standards. Filter objects themselves
// are modeled by the filter package; this package owns the mapping between
// those objects and their on-disk group layout.
package mth5

import "errors"

// Common errors
var (
	ErrNotMTH5             = errors.New("not an MTH5 file")
	ErrIncompatibleVersion = errors.New("incompatible MTH5 file version")
	ErrFilterNotFound      = errors.New("filter not found")
	ErrKindMismatch        = errors.New("filter kind mismatch")
	ErrRemoveNotSupported  = errors.New("filter removal not supported")
)
