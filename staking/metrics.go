// Copyright (c) 2025 The StakingPool developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/taisys-technologies/audit-stakingpool/metrics"
)

var (
	metricOperationCount    = metrics.LazyLoadCounterVec("pool_operations_count", []string{"op", "result"})
	metricOperationDuration = metrics.LazyLoadHistogramVec("pool_operation_duration_ms", []string{"op"}, metrics.BucketHTTPReqs)
	metricTotalDeposited    = metrics.LazyLoadGauge("pool_total_deposited")
)
