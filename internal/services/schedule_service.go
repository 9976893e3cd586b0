package services

import (
	"database/sql"
	"time"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// ScheduleServiceProvider defines the interface for schedule-state services.
type ScheduleServiceProvider interface {
	GetSchedule(username string) (models.BackupSchedule, error)
	SaveSchedule(schedule models.BackupSchedule) error
	UpdateNextDue(username string, next *time.Time) error
}

// ScheduleService persists the per-user backup schedule locally so the
// countdown stays meaningful across restarts. The remote settings store is
// authoritative; this is the agent's working copy.
type ScheduleService struct {
	db *sql.DB
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(db *sql.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// GetSchedule retrieves the persisted schedule for a user, falling back to
// defaults when none has been saved yet.
func (s *ScheduleService) GetSchedule(username string) (models.BackupSchedule, error) {
	var schedule models.BackupSchedule
	var nextDue sql.NullTime
	row := s.db.QueryRow(`
		SELECT username, enabled, interval_minutes, max_retained_count, next_due_at, updated_at
		FROM schedule_state WHERE username = ?`, username)
	err := row.Scan(&schedule.Username, &schedule.Enabled, &schedule.IntervalMinutes,
		&schedule.MaxRetainedCount, &nextDue, &schedule.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.BackupSchedule{
			Username:         username,
			Enabled:          false,
			IntervalMinutes:  models.DefaultIntervalMinutes,
			MaxRetainedCount: models.DefaultMaxRetainedCount,
		}, nil
	}
	if err != nil {
		return models.BackupSchedule{}, err
	}
	if nextDue.Valid {
		t := nextDue.Time
		schedule.NextDueAt = &t
	}
	return schedule, nil
}

// SaveSchedule upserts the full schedule state for a user.
func (s *ScheduleService) SaveSchedule(schedule models.BackupSchedule) error {
	stmt, err := s.db.Prepare(`
		INSERT INTO schedule_state (username, enabled, interval_minutes, max_retained_count, next_due_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(username) DO UPDATE SET
			enabled = excluded.enabled,
			interval_minutes = excluded.interval_minutes,
			max_retained_count = excluded.max_retained_count,
			next_due_at = excluded.next_due_at,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var nextDue any
	if schedule.NextDueAt != nil {
		nextDue = schedule.NextDueAt.UTC()
	}
	_, err = stmt.Exec(schedule.Username, schedule.Enabled, schedule.IntervalMinutes,
		models.ClampRetention(schedule.MaxRetainedCount), nextDue)
	return err
}

// UpdateNextDue records only the next due timestamp, or clears it.
func (s *ScheduleService) UpdateNextDue(username string, next *time.Time) error {
	var nextDue any
	if next != nil {
		nextDue = next.UTC()
	}
	_, err := s.db.Exec(
		"UPDATE schedule_state SET next_due_at = ?, updated_at = CURRENT_TIMESTAMP WHERE username = ?",
		nextDue, username)
	return err
}
