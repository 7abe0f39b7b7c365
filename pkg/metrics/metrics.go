package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mediashelf", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mediashelf", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	MediaOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mediashelf", Name: "media_operations_total", Help: "Media API operations by operation and outcome."},
		[]string{"op", "result"},
	)
	// RevisionGaps counts updates whose pre-update snapshot could not be stored.
	RevisionGaps = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "mediashelf", Name: "revision_gaps_total", Help: "Updates that succeeded without their revision snapshot."},
	)
	OrphanedRevisions = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "mediashelf", Name: "orphaned_revision_deletes_total", Help: "Master deletes whose revisions could not be removed."},
	)
	ChatMembers = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "mediashelf", Name: "chat_members", Help: "Members currently joined to the chat room."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(MediaOperations)
	reg.MustRegister(RevisionGaps)
	reg.MustRegister(OrphanedRevisions)
	reg.MustRegister(ChatMembers)
}
