// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package adstore holds the ad and project ledger: ad records, publisher
// projects, single-use viewing tickets and the purchase / cash-out
// arithmetic between them.
package adstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/adxyz/adnet/pkg/ids"
	"github.com/adxyz/adnet/pkg/log"
	"github.com/adxyz/adnet/pkg/storage"
)

// DefaultDwell is the minimum interval an ad must be shown before its view
// may be credited.
const DefaultDwell = 5 * time.Second

const auditLogCap = 1000

var (
	adKeyPrefix      = []byte("ad/")
	projectKeyPrefix = []byte("project/")
	nextAdIDKey      = []byte("meta/next_ad_id")
)

// Config tunes a Store.
type Config struct {
	// Dwell is the minimum show time before a view is credited.
	// Zero means DefaultDwell.
	Dwell time.Duration

	// PasswordHash is the bcrypt hash checked by VerifyPassword. Empty
	// means every password is rejected.
	PasswordHash string

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time

	Log log.Logger
}

// Store is the ad/project ledger. All state-changing calls are serialized
// under one mutex; records are written through to the backing store so a
// restart loses only outstanding tickets.
type Store struct {
	mu sync.Mutex

	ads      map[uint64]*Ad
	projects map[string]*Project
	nextAdID uint64

	tickets       map[ids.TicketID]*ticket
	liveByProject map[string]ids.TicketID
	nextTicketID  ids.TicketID

	audit []LogEntry

	dwell        time.Duration
	passwordHash string
	now          func() time.Time

	db  *storage.Storage
	log log.Logger
}

// New loads the ledger from st. A nil st keeps everything in memory.
func New(st *storage.Storage, cfg Config) (*Store, error) {
	s := &Store{
		ads:           make(map[uint64]*Ad),
		projects:      make(map[string]*Project),
		nextAdID:      1,
		tickets:       make(map[ids.TicketID]*ticket),
		liveByProject: make(map[string]ids.TicketID),
		dwell:         cfg.Dwell,
		passwordHash:  cfg.PasswordHash,
		now:           cfg.Now,
		db:            st,
		log:           cfg.Log,
	}
	if s.dwell <= 0 {
		s.dwell = DefaultDwell
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = log.NoLog
	}
	if st != nil {
		if err := s.load(); err != nil {
			return nil, errors.Wrap(err, "loading ad store")
		}
	}
	return s, nil
}

func (s *Store) load() error {
	it := s.db.NewIteratorWithPrefix(adKeyPrefix)
	for it.Next() {
		var ad Ad
		if err := json.Unmarshal(it.Value(), &ad); err != nil {
			it.Release()
			return errors.Wrapf(err, "decoding ad %q", it.Key())
		}
		s.ads[ad.ID] = &ad
		if ad.ID >= s.nextAdID {
			s.nextAdID = ad.ID + 1
		}
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	it = s.db.NewIteratorWithPrefix(projectKeyPrefix)
	for it.Next() {
		var p Project
		if err := json.Unmarshal(it.Value(), &p); err != nil {
			it.Release()
			return errors.Wrapf(err, "decoding project %q", it.Key())
		}
		s.projects[p.ID] = &p
	}
	it.Release()
	if err := it.Error(); err != nil {
		return err
	}

	if raw, err := s.db.Get(nextAdIDKey); err == nil && len(raw) == 8 {
		if stored := binary.BigEndian.Uint64(raw); stored > s.nextAdID {
			s.nextAdID = stored
		}
	} else if err != nil && !storage.ErrNotFound(err) {
		return err
	}

	s.log.Info("ad store loaded",
		log.Int("ads", len(s.ads)),
		log.Int("projects", len(s.projects)))
	return nil
}

func adKey(id uint64) []byte {
	return fmt.Appendf(nil, "%s%016x", adKeyPrefix, id)
}

func projectKey(id string) []byte {
	return append(append([]byte{}, projectKeyPrefix...), id...)
}

// persistAd writes the ad through to the backing store. Callers hold s.mu.
func (s *Store) persistAd(ad *Ad) error {
	if s.db == nil {
		return nil
	}
	raw, err := json.Marshal(ad)
	if err != nil {
		return err
	}
	if err := s.db.Put(adKey(ad.ID), raw); err != nil {
		return errors.Wrap(err, "persisting ad")
	}
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], s.nextAdID)
	return s.db.Put(nextAdIDKey, idBuf[:])
}

// persistProject writes the project through to the backing store. Callers
// hold s.mu.
func (s *Store) persistProject(p *Project) error {
	if s.db == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return errors.Wrap(s.db.Put(projectKey(p.ID), raw), "persisting project")
}

// record appends an audit entry. Callers hold s.mu.
func (s *Store) record(method string, caller ids.Principal, format string, args ...any) {
	entry := LogEntry{
		Method:    method,
		Caller:    caller,
		Details:   fmt.Sprintf(format, args...),
		Timestamp: s.now(),
	}
	s.audit = append(s.audit, entry)
	if len(s.audit) > auditLogCap {
		s.audit = s.audit[len(s.audit)-auditLogCap:]
	}
}

// Logs returns a copy of the audit log, oldest first.
func (s *Store) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// VerifyPassword checks a beta-access password against the configured
// bcrypt hash.
func (s *Store) VerifyPassword(pw string) bool {
	if s.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(pw)) == nil
}

// Close releases the backing store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
