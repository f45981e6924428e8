// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/taisys-technologies/audit-stakingpool/staking"
)

// Source is the authoritative event journal.
type Source interface {
	EventCount() (uint64, error)
	EventRange(from, limit uint64) ([]*staking.Event, error)
}

// Sync indexes the journal events the db has not seen yet, batch events at a
// time. progress, when not nil, is called after every batch with the number
// of events synced so far and the number to sync in total.
func Sync(ctx context.Context, db *LogDB, src Source, batch uint64, progress func(done, total uint64)) error {
	if batch == 0 {
		batch = 256
	}
	next, err := db.NextSeq(ctx)
	if err != nil {
		return err
	}
	count, err := src.EventCount()
	if err != nil {
		return err
	}
	if next > count {
		return errors.Errorf("index is ahead of journal: next seq %d, journal has %d", next, count)
	}
	total := count - next
	if total == 0 {
		return nil
	}
	logger.Info("syncing event index", "from", next, "count", total)

	start := next
	for next < count {
		if err := ctx.Err(); err != nil {
			return err
		}
		events, err := src.EventRange(next, batch)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			break
		}
		if err := db.Index(events); err != nil {
			return err
		}
		next += uint64(len(events))
		if progress != nil {
			progress(next-start, total)
		}
	}
	logger.Info("event index synced", "next", next)
	return nil
}
