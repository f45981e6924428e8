// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"

	"github.com/holiman/uint256"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/builtin/ledger"
	"github.com/taisys-technologies/audit-stakingpool/log"
	"github.com/taisys-technologies/audit-stakingpool/staking"
	"github.com/taisys-technologies/audit-stakingpool/types"
)

var logger = log.WithContext("pkg", "logdb")

var _ staking.Indexer = (*LogDB)(nil)

// LogDB is a queryable sqlite index of the pool's event journal.
type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmts         *eventStmts
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// a memory database lives as long as its connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmts:         newEventStmts(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	if err := db.stmts.close(); err != nil {
		logger.Warn("failed to close statements", "err", err)
	}
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Index stores events. Re-indexing an event with a known seq replaces it.
func (db *LogDB) Index(events []*staking.Event) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := db.stmts.get(insertEventQuery)
	if err != nil {
		return err
	}
	return db.execInTx(func(tx *sql.Tx) error {
		txStmt := tx.Stmt(stmt)
		for _, ev := range events {
			if _, err := txStmt.Exec(
				ev.Seq,
				uint8(ev.Action),
				ev.Owner.Bytes(),
				amountValue(ev.Amount),
				amountValue(ev.Principal),
				ev.Time,
			); err != nil {
				return errors.Wrapf(err, "index event %d", ev.Seq)
			}
		}
		metricIndexedEvents().Add(int64(len(events)))
		return nil
	})
}

// NextSeq returns the seq following the highest indexed event.
func (db *LogDB) NextSeq(ctx context.Context) (uint64, error) {
	stmt, err := db.stmts.get(maxSeqQuery)
	if err != nil {
		return 0, err
	}
	var last sql.NullInt64
	if err := stmt.QueryRowContext(ctx).Scan(&last); err != nil {
		return 0, err
	}
	if !last.Valid {
		return 0, nil
	}
	return uint64(last.Int64) + 1, nil
}

// Truncate removes all indexed events.
func (db *LogDB) Truncate(ctx context.Context) error {
	stmt, err := db.stmts.get(truncateQuery)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx)
	return err
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*staking.Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Owner != nil {
		args = append(args, filter.Owner.Bytes())
		stmt += " AND owner = ? "
	}
	if filter.Action != nil {
		args = append(args, uint8(*filter.Action))
		stmt += " AND action = ? "
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ? "
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*staking.Event, error) {
	prepared, err := db.stmts.get(stmt)
	if err != nil {
		return nil, err
	}
	rows, err := prepared.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*staking.Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       uint64
			action    uint8
			owner     []byte
			amount    []byte
			principal []byte
			time      uint64
		)
		if err := rows.Scan(
			&seq,
			&action,
			&owner,
			&amount,
			&principal,
			&time,
		); err != nil {
			return nil, err
		}
		events = append(events, &staking.Event{
			Seq:       seq,
			Action:    ledger.Action(action),
			Owner:     types.BytesToAddress(owner),
			Amount:    new(uint256.Int).SetBytes(amount),
			Principal: new(uint256.Int).SetBytes(principal),
			Time:      time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (db *LogDB) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func amountValue(v *uint256.Int) []byte {
	if v == nil {
		v = new(uint256.Int)
	}
	b := v.Bytes32()
	return b[:]
}
