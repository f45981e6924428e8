// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket is a key prefix giving one dataset its own namespace in a store,
// e.g. the pool state slots in main.db.
type Bucket string

// Key returns k inside the bucket.
func (b Bucket) Key(k []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(k)), b...), k...)
}

// NewStore returns src seen through the bucket. Keys passed in and returned
// are relative to the bucket.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{b, src}
}

type bucketStore struct {
	b   Bucket
	src Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.b.Key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.b.Key(key)) }
func (s *bucketStore) IsNotFound(err error) bool       { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error       { return s.src.Put(s.b.Key(key), val) }
func (s *bucketStore) Delete(key []byte) error         { return s.src.Delete(s.b.Key(key)) }

func (s *bucketStore) Bulk() Bulk {
	return &bucketBulk{s.b, s.src.Bulk()}
}

// Iterate walks r inside the bucket. An empty limit runs to the bucket end.
func (s *bucketStore) Iterate(r Range) Iterator {
	limit := util.BytesPrefix([]byte(s.b)).Limit
	if len(r.Limit) > 0 {
		limit = s.b.Key(r.Limit)
	}
	return &bucketIterator{len(s.b), s.src.Iterate(Range{Start: s.b.Key(r.Start), Limit: limit})}
}

type bucketBulk struct {
	b Bucket
	Bulk
}

func (bb *bucketBulk) Put(key, val []byte) error { return bb.Bulk.Put(bb.b.Key(key), val) }
func (bb *bucketBulk) Delete(key []byte) error   { return bb.Bulk.Delete(bb.b.Key(key)) }

type bucketIterator struct {
	prefix int
	Iterator
}

func (it *bucketIterator) Key() []byte { return it.Iterator.Key()[it.prefix:] }
