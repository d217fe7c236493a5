// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"fmt"
	"strings"
)

// Principal is an opaque caller identity used for ownership checks.
// The zero value is not valid; use Anonymous for unauthenticated callers.
type Principal string

// Anonymous is the principal of an unauthenticated caller.
const Anonymous Principal = "2vxsx-fae"

// PrincipalFromString parses the text form of a principal.
func PrincipalFromString(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty principal")
	}
	return Principal(s), nil
}

// String returns the text form of the principal.
func (p Principal) String() string {
	return string(p)
}

// IsAnonymous reports whether the principal is the anonymous identity.
func (p Principal) IsAnonymous() bool {
	return p == Anonymous || p == ""
}
