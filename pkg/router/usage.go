package router

import (
	"sync"
	"time"
)

// backupReasonRing bounds the remembered fallback reasons.
const backupReasonRing = 5

// UsageStats is a snapshot of the tracker.
type UsageStats struct {
	LLMSuccessCount     int        `json:"llm_success_count"`
	BackupUsageCount    int        `json:"backup_usage_count"`
	TotalRequests       int        `json:"total_requests"`
	LLMSuccessRate      float64    `json:"llm_success_rate"`
	BackupUsageRate     float64    `json:"backup_usage_rate"`
	LastBackupTime      *time.Time `json:"last_backup_time,omitempty"`
	RecentBackupReasons []string   `json:"recent_backup_reasons,omitempty"`
}

// UsageTracker counts LLM-routing successes versus rule fallbacks.
// Sustained fallback usage means the decision model is misbehaving.
// Safe for concurrent use; resets at process restart.
type UsageTracker struct {
	mu sync.Mutex

	llmSuccessCount  int
	backupUsageCount int
	lastBackupTime   *time.Time
	backupReasons    []string
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{}
}

// RecordLLMSuccess counts a successful LLM routing decision.
func (t *UsageTracker) RecordLLMSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.llmSuccessCount++
}

// RecordBackup counts a rule fallback and remembers the reason.
func (t *UsageTracker) RecordBackup(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backupUsageCount++
	now := time.Now()
	t.lastBackupTime = &now

	t.backupReasons = append(t.backupReasons, reason)
	if len(t.backupReasons) > backupReasonRing {
		t.backupReasons = t.backupReasons[len(t.backupReasons)-backupReasonRing:]
	}
}

// Stats returns a snapshot of the counters.
func (t *UsageTracker) Stats() UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats := UsageStats{
		LLMSuccessCount:  t.llmSuccessCount,
		BackupUsageCount: t.backupUsageCount,
		TotalRequests:    t.llmSuccessCount + t.backupUsageCount,
	}

	if stats.TotalRequests > 0 {
		stats.LLMSuccessRate = float64(t.llmSuccessCount) / float64(stats.TotalRequests)
		stats.BackupUsageRate = float64(t.backupUsageCount) / float64(stats.TotalRequests)
	}

	if t.lastBackupTime != nil {
		last := *t.lastBackupTime
		stats.LastBackupTime = &last
	}

	stats.RecentBackupReasons = append([]string(nil), t.backupReasons...)

	return stats
}
