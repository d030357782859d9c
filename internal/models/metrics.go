package models

import "time"

// SystemMetrics is a JSON-friendly summary of the Prometheus counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	LessonsScheduled         uint64    `json:"lessons_scheduled"`
	LessonConflicts          uint64    `json:"lesson_conflicts"`
	SnapshotSyncs            uint64    `json:"snapshot_syncs"`
	SnapshotSyncFailures     uint64    `json:"snapshot_sync_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
