// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"strconv"

	"github.com/google/uuid"
)

// TicketID identifies a single-use viewing ticket. Ticket ids are assigned
// monotonically by the ad store and are never reused.
type TicketID uint64

// String returns the decimal form of the ticket id.
func (t TicketID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// NewRequestID returns a random id used to correlate a request through
// logs and the status stream.
func NewRequestID() string {
	return uuid.NewString()
}
