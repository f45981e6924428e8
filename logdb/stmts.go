// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"database/sql"
	"sync"

	"github.com/pkg/errors"
)

const (
	insertEventQuery = "INSERT OR REPLACE INTO event(seq, action, owner, amount, principal, time) VALUES (?, ?, ?, ?, ?, ?);"
	maxSeqQuery      = "SELECT MAX(seq) FROM event"
	truncateQuery    = "DELETE FROM event"
)

// eventStmts holds the prepared event queries keyed by their text.
// Filter queries are assembled from a fixed set of clauses, so the number of
// distinct shapes is bounded.
type eventStmts struct {
	db   *sql.DB
	lock sync.Mutex
	m    map[string]*sql.Stmt
}

func newEventStmts(db *sql.DB) *eventStmts {
	return &eventStmts{db: db, m: make(map[string]*sql.Stmt)}
}

func (s *eventStmts) get(query string) (*sql.Stmt, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if stmt, ok := s.m[query]; ok {
		return stmt, nil
	}
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(err, "prepare event query")
	}
	s.m[query] = stmt
	return stmt, nil
}

func (s *eventStmts) len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.m)
}

func (s *eventStmts) close() (err error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for query, stmt := range s.m {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(s.m, query)
	}
	return
}
