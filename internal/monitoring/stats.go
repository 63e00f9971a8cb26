package monitoring

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is a point-in-time view of the service and its store.
type Snapshot struct {
	TimestampUTC       string  `json:"timestamp_utc"`
	UptimeSeconds      int64   `json:"uptime_seconds"`
	Database           string  `json:"database"`
	UsersTotal         int64   `json:"users_total"`
	TasksTotal         int64   `json:"tasks_total"`
	TasksCompleted     int64   `json:"tasks_completed"`
	DBOpenConnections  int     `json:"db_open_connections"`
	DBInUseConnections int     `json:"db_in_use_connections"`
	DBWaitCount        int64   `json:"db_wait_count"`
	Goroutines         int     `json:"goroutines"`
	ProcessRSSBytes    uint64  `json:"process_rss_bytes"`
	ProcessCPUPercent  float64 `json:"process_cpu_percent"`
}

// Stats collects Snapshots.
type Stats struct {
	db        *database.DB
	startedAt time.Time
	proc      *process.Process
}

// NewStats creates a collector. Process metrics are left at zero when the
// current process cannot be inspected.
func NewStats(db *database.DB, startedAt time.Time) *Stats {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Stats{db: db, startedAt: startedAt, proc: proc}
}

// Snapshot pings the store and gathers counters. A failing store is
// reported in the Database field and as the returned error.
func (s *Stats) Snapshot(ctx context.Context) (Snapshot, error) {
	now := time.Now().UTC()
	snap := Snapshot{
		TimestampUTC:  now.Format(time.RFC3339),
		UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
		Database:      "ok",
		Goroutines:    runtime.NumGoroutine(),
	}

	pool := s.db.Stats()
	snap.DBOpenConnections = pool.OpenConnections
	snap.DBInUseConnections = pool.InUse
	snap.DBWaitCount = pool.WaitCount

	if s.proc != nil {
		if mem, err := s.proc.MemoryInfoWithContext(ctx); err == nil {
			snap.ProcessRSSBytes = mem.RSS
		}
		if cpu, err := s.proc.CPUPercentWithContext(ctx); err == nil {
			snap.ProcessCPUPercent = cpu
		}
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM users), (SELECT COUNT(*) FROM tasks), (SELECT COUNT(*) FROM tasks WHERE is_completed)",
	).Scan(&snap.UsersTotal, &snap.TasksTotal, &snap.TasksCompleted)
	if err != nil {
		snap.Database = "error"
		return snap, fmt.Errorf("failed to count records: %w", err)
	}
	return snap, nil
}
