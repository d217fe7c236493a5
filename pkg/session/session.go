// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session owns the authenticated identity of a client. One auth
// method is active at a time; switching methods requires an explicit
// logout.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/adxyz/adnet/pkg/ids"
)

// Method identifies how the session was authenticated.
type Method string

const (
	MethodPlug             Method = "Plug"
	MethodInternetIdentity Method = "InternetIdentity"
)

var (
	// ErrNotAuthenticated means the operation requires an identity and
	// none is present.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAlreadyAuthenticated means a second auth method was attempted
	// while another is active. Logout first.
	ErrAlreadyAuthenticated = errors.New("already authenticated; log out first")

	// ErrActorUninitialized means an operation ran before the backing
	// service handle was created.
	ErrActorUninitialized = errors.New("actor not initialized")
)

// Session is the explicit auth state passed into each operation. The zero
// value is unauthenticated.
type Session struct {
	mu        sync.RWMutex
	method    Method
	principal ids.Principal
}

// New returns an unauthenticated session.
func New() *Session {
	return &Session{}
}

// Connect authenticates the session via method. A second connect with the
// same method replaces the identity; a connect with a different method is
// rejected until Logout.
func (s *Session) Connect(method Method, principal ids.Principal) error {
	if method != MethodPlug && method != MethodInternetIdentity {
		return fmt.Errorf("unknown auth method %q", method)
	}
	if principal.IsAnonymous() {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.method != "" && s.method != method {
		return ErrAlreadyAuthenticated
	}
	s.method = method
	s.principal = principal
	return nil
}

// Logout drops the active identity. Logging out an unauthenticated
// session is a no-op.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = ""
	s.principal = ""
}

// Method returns the active auth method, empty when unauthenticated.
func (s *Session) Method() Method {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.method
}

// Principal returns the authenticated identity, or ErrNotAuthenticated.
func (s *Session) Principal() (ids.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.method == "" {
		return "", ErrNotAuthenticated
	}
	return s.principal, nil
}

// Authenticated reports whether an identity is active.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.method != ""
}
