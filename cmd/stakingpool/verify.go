// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/taisys-technologies/audit-stakingpool/api/events"
	"github.com/taisys-technologies/audit-stakingpool/logdb"
	"github.com/taisys-technologies/audit-stakingpool/staking"
)

// verifyEventIndex compares every indexed event with its journal entry.
func verifyEventIndex(ctx context.Context, logDB *logdb.LogDB, pool *staking.Pool, batch uint64, showProgress bool) error {
	if batch == 0 {
		batch = 256
	}
	count, err := pool.EventCount()
	if err != nil {
		return err
	}
	next, err := logDB.NextSeq(ctx)
	if err != nil {
		return err
	}
	if next != count {
		return errors.Errorf("index holds %d events, journal holds %d", next, count)
	}

	var bar *pb.ProgressBar
	if showProgress {
		fmt.Println(">> Verifying event index <<")
		bar = pb.New64(int64(count)).SetMaxWidth(90).Start()
		defer bar.Finish()
	}

	for from := uint64(0); from < count; from += batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		expected, err := pool.EventRange(from, batch)
		if err != nil {
			return err
		}
		actual, err := logDB.FilterEvents(ctx, &logdb.EventFilter{
			Options: &logdb.Options{Offset: from, Limit: batch},
			Order:   logdb.ASC,
		})
		if err != nil {
			return err
		}
		if len(expected) != len(actual) {
			return errors.Errorf("batch at %d: expected %d events, got %d", from, len(expected), len(actual))
		}
		for i := range expected {
			e, a := events.ConvertEvent(expected[i]), events.ConvertEvent(actual[i])
			if !reflect.DeepEqual(e, a) {
				return errors.Errorf("event %d mismatch:\n%s", expected[i].Seq, jsonDiff(e, a))
			}
		}
		if bar != nil {
			bar.Add(len(expected))
		}
	}
	return nil
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Journal",
		ToFile:   "Index",
		Context:  1,
	})
	return diff
}
