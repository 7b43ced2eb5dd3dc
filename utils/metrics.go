package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersScanned counts scan items by outcome (scheduled, already_exists, stale, failed).
	RemindersScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewdesk_reminder_scan_items_total",
		Help: "Reminder scan items by outcome.",
	}, []string{"kind", "outcome"})

	// RemindersProcessed counts processor runs by final outcome.
	RemindersProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewdesk_reminders_processed_total",
		Help: "Reminder executions by outcome.",
	}, []string{"outcome"})

	// ChannelFailures counts failed delivery attempts per channel.
	ChannelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewdesk_reminder_channel_failures_total",
		Help: "Failed reminder deliveries per channel.",
	}, []string{"channel"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reviewdesk_reminder_scan_duration_seconds",
		Help:    "Duration of reminder reconciliation scans.",
		Buckets: prometheus.DefBuckets,
	})
)
