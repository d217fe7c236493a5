// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage wraps the key-value store backing the ad/project ledger.
package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Storage wraps a LevelDB instance.
type Storage struct {
	db *leveldb.DB
}

// NewStorage opens a store of the given type. "memory" keeps everything
// in process; anything else opens (or creates) a LevelDB at path.
func NewStorage(dbType string, path string) (*Storage, error) {
	var db *leveldb.DB
	var err error

	switch dbType {
	case "memory":
		db, err = leveldb.Open(ldbstorage.NewMemStorage(), nil)
	default:
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Put stores a key-value pair.
func (s *Storage) Put(key, value []byte) error {
	return s.db.Put(key, value, nil)
}

// Get retrieves a value by key.
func (s *Storage) Get(key []byte) ([]byte, error) {
	return s.db.Get(key, nil)
}

// Has checks if a key exists.
func (s *Storage) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

// Delete removes a key-value pair.
func (s *Storage) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// NewIteratorWithPrefix iterates all keys sharing the given prefix.
func (s *Storage) NewIteratorWithPrefix(prefix []byte) iterator.Iterator {
	return s.db.NewIterator(util.BytesPrefix(prefix), nil)
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// ErrNotFound reports whether err marks a missing key.
func ErrNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}
