// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package adstore

import "errors"

var (
	// ErrNotFound means the referenced ad or project does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotOwner means the caller does not own the referenced record.
	ErrNotOwner = errors.New("caller is not the owner")

	// ErrAlreadyExists means a project with the given id is already
	// registered. The existing record is left untouched.
	ErrAlreadyExists = errors.New("project already exists")

	// ErrInvalidInput means the request was malformed (empty id, zero
	// views, unknown ad type).
	ErrInvalidInput = errors.New("invalid input")

	// ErrTicketInvalid means a redemption was attempted on a ticket that
	// is expired, cancelled, already consumed, or not yet past its dwell
	// interval. The serving count is unchanged in every such case.
	ErrTicketInvalid = errors.New("ticket invalid")
)
