// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for stake events
const eventTableSchema = `
create table if not exists event (
	seq integer primary key,
	action integer not null,
	owner blob(20) not null,
	amount blob(32) not null,
	principal blob(32) not null,
	time integer not null
);

CREATE INDEX if not exists ownerIndex on event(owner);
CREATE INDEX if not exists timeIndex on event(time);
`
