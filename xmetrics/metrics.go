// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of counters/histograms the spec's §3.5 ambient stack
// calls for: forest put/multivalue activity, HAMT node size, ratchet seek
// cost, and accumulator proof verification latency.
type Metrics interface {
	// ForestPut counts put_encrypted calls (spec §4.5).
	ForestPut() prometheus.Counter

	// ForestMultivalue counts label writes that land on an existing,
	// different CID set — i.e. a concurrent-write conflict (spec §4.5,
	// "Multivalue").
	ForestMultivalue() prometheus.Counter

	// HAMTNodeBytes observes the encoded size of a persisted HAMT node.
	HAMTNodeBytes() prometheus.Histogram

	// RatchetSeekSteps observes how many increments a RatchetSeeker
	// needed to bracket a target revision (spec §4.7.4 search_latest).
	RatchetSeekSteps() prometheus.Histogram

	// AccumulatorVerifySeconds times PoKE* (batch) verification calls.
	AccumulatorVerifySeconds() prometheus.Histogram
}

// NewMetrics creates and registers the engine's metrics under namespace
// (e.g. "vaultfs"). If reg is nil, a disabled Metrics is returned whose
// counters/histograms are unregistered and safe to call.
func NewMetrics(namespace string, reg prometheus.Registerer) (Metrics, error) {
	m := &metrics{
		forestPut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forest_put_total",
			Help:      "Number of forest put_encrypted calls.",
		}),
		forestMultivalue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forest_multivalue_total",
			Help:      "Number of forest labels holding more than one CID (concurrent writes).",
		}),
		hamtNodeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hamt_node_bytes",
			Help:      "Encoded size in bytes of persisted HAMT nodes.",
			Buckets:   prometheus.ExponentialBuckets(32, 2, 12),
		}),
		ratchetSeekSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ratchet_seek_steps",
			Help:      "Number of ratchet increments a RatchetSeeker performed to find the latest revision.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		accumulatorVerifySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "accumulator_proof_verify_seconds",
			Help:      "Time to verify a (possibly batched) PoKE* accumulator proof.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg == nil {
		return m, nil
	}

	collectors := []prometheus.Collector{
		m.forestPut, m.forestMultivalue, m.hamtNodeBytes,
		m.ratchetSeekSteps, m.accumulatorVerifySeconds,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type metrics struct {
	forestPut                prometheus.Counter
	forestMultivalue         prometheus.Counter
	hamtNodeBytes            prometheus.Histogram
	ratchetSeekSteps         prometheus.Histogram
	accumulatorVerifySeconds prometheus.Histogram
}

func (m *metrics) ForestPut() prometheus.Counter                 { return m.forestPut }
func (m *metrics) ForestMultivalue() prometheus.Counter          { return m.forestMultivalue }
func (m *metrics) HAMTNodeBytes() prometheus.Histogram           { return m.hamtNodeBytes }
func (m *metrics) RatchetSeekSteps() prometheus.Histogram        { return m.ratchetSeekSteps }
func (m *metrics) AccumulatorVerifySeconds() prometheus.Histogram { return m.accumulatorVerifySeconds }
