package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/backup"
	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// SnapshotBuilder assembles one snapshot document for a user.
type SnapshotBuilder interface {
	Build(ctx context.Context, username string) (*models.SnapshotDocument, error)
}

// SettingsStore is the remote settings surface the service depends on. It is
// authoritative for the backup configuration; the agent only mirrors it.
type SettingsStore interface {
	Username() string
	GetUserSettings(ctx context.Context) (models.UserSettings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) error
}

// Notifier pushes backup lifecycle updates to connected UI clients.
type Notifier interface {
	Notify(action string, payload any)
}

// BackupServiceProvider defines the interface for the backup service.
type BackupServiceProvider interface {
	CheckAndRecoverExitBackup() (int, error)
	OnLogin(ctx context.Context) error
	StartAutoBackup(intervalMinutes int) error
	StopAutoBackup() error
	PerformBackup() (models.BackupArtifact, error)
	GetBackupList() ([]models.BackupArtifact, error)
	DeleteAllBackups() (int, error)
	TimeUntilNextBackup() (time.Duration, bool)
	FormatTimeUntilNextBackup() string
	ApplySettings(ctx context.Context, patch models.SettingsPatch) (models.UserSettings, error)
	Shutdown()
}

// BackupService orchestrates the snapshot pipeline: builder, atomic writer,
// retention, catalog, recovery and the scheduler. Every trigger source —
// scheduled tick, manual request, backup-on-launch — funnels through the
// same in-flight guard, so at most one pipeline runs at any time.
type BackupService struct {
	builder     SnapshotBuilder
	writer      *backup.Writer
	catalog     *backup.Catalog
	retention   *backup.Retention
	recovery    *backup.Recovery
	scheduler   *backup.Scheduler
	scheduleSvc ScheduleServiceProvider
	eventSvc    EventServiceProvider
	settings    SettingsStore
	notifier    Notifier

	backupOnLaunch bool
	inFlight       atomic.Bool
}

// NewBackupService wires the pipeline together. The clock drives the
// scheduler; pass a test clock to simulate time.
func NewBackupService(
	clk clock.Clock,
	backupDir string,
	builder SnapshotBuilder,
	scheduleSvc ScheduleServiceProvider,
	eventSvc EventServiceProvider,
	settings SettingsStore,
	notifier Notifier,
	backupOnLaunch bool,
) *BackupService {
	catalog := backup.NewCatalog(backupDir)
	s := &BackupService{
		builder:        builder,
		writer:         backup.NewWriter(backupDir),
		catalog:        catalog,
		retention:      backup.NewRetention(catalog),
		recovery:       backup.NewRecovery(backupDir),
		scheduleSvc:    scheduleSvc,
		eventSvc:       eventSvc,
		settings:       settings,
		notifier:       notifier,
		backupOnLaunch: backupOnLaunch,
	}
	s.scheduler = backup.NewScheduler(clk, s.runScheduled, s.persistNextDue)
	return s
}

// CheckAndRecoverExitBackup discards pending artifacts left by a prior
// unclean exit. Call once at startup, before any scheduling.
func (s *BackupService) CheckAndRecoverExitBackup() (int, error) {
	removed, err := s.recovery.RecoverFromPriorExit()
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		msg := fmt.Sprintf("Discarded %d incomplete backup file(s) from a previous session.", removed)
		s.logEvent("backup.recovery", "warn", msg, nil)
	}
	return removed, nil
}

// OnLogin reconciles the remote settings with the local schedule state and
// arms the scheduler if auto backup is enabled. When a persisted due time is
// still in the future the countdown resumes instead of restarting.
func (s *BackupService) OnLogin(ctx context.Context) error {
	username := s.settings.Username()
	if username == "" {
		return fmt.Errorf("no authenticated user")
	}

	remoteSettings, err := s.settings.GetUserSettings(ctx)
	if err != nil {
		return fmt.Errorf("load user settings: %w", err)
	}

	local, err := s.scheduleSvc.GetSchedule(username)
	if err != nil {
		return fmt.Errorf("load schedule state: %w", err)
	}

	interval := remoteSettings.AutoBackupInterval
	if !models.ValidInterval(interval) {
		log.Warn().Int("interval_minutes", interval).Msg("Unsupported backup interval in settings, using default")
		interval = models.DefaultIntervalMinutes
	}

	schedule := models.BackupSchedule{
		Username:         username,
		Enabled:          remoteSettings.AutoBackupEnabled,
		IntervalMinutes:  interval,
		MaxRetainedCount: models.ClampRetention(remoteSettings.AutoBackupMaxCount),
		NextDueAt:        local.NextDueAt,
	}
	if err := s.scheduleSvc.SaveSchedule(schedule); err != nil {
		return fmt.Errorf("save schedule state: %w", err)
	}

	if !schedule.Enabled {
		s.scheduler.Stop()
		return nil
	}

	if s.backupOnLaunch {
		go func() {
			if _, err := s.PerformBackup(); err != nil && !errors.Is(err, backup.ErrBackupInProgress) {
				log.Error().Err(err).Msg("Backup on launch failed")
			}
		}()
	}

	if schedule.NextDueAt != nil {
		return s.scheduler.Resume(interval, *schedule.NextDueAt)
	}
	return s.scheduler.Start(interval)
}

// StartAutoBackup arms (or reconfigures) the repeating backup timer.
func (s *BackupService) StartAutoBackup(intervalMinutes int) error {
	username := s.settings.Username()
	if username == "" {
		return fmt.Errorf("no authenticated user")
	}

	schedule, err := s.scheduleSvc.GetSchedule(username)
	if err != nil {
		return err
	}
	schedule.Username = username
	schedule.Enabled = true
	schedule.IntervalMinutes = intervalMinutes
	if err := s.scheduleSvc.SaveSchedule(schedule); err != nil {
		return err
	}
	return s.scheduler.Start(intervalMinutes)
}

// StopAutoBackup disarms the timer. Existing artifacts are untouched. The
// error is returned so callers can decide how much to care; a logout flow
// should log it and proceed.
func (s *BackupService) StopAutoBackup() error {
	s.scheduler.Stop()

	username := s.settings.Username()
	if username == "" {
		return nil
	}
	schedule, err := s.scheduleSvc.GetSchedule(username)
	if err != nil {
		return err
	}
	schedule.Username = username
	schedule.Enabled = false
	schedule.NextDueAt = nil
	return s.scheduleSvc.SaveSchedule(schedule)
}

// PerformBackup runs one manual backup through the shared in-flight guard.
// It reports the result synchronously and never alters the scheduled
// countdown.
func (s *BackupService) PerformBackup() (models.BackupArtifact, error) {
	return s.runBackup("manual")
}

// GetBackupList returns the user's committed artifacts, newest first.
func (s *BackupService) GetBackupList() ([]models.BackupArtifact, error) {
	username := s.settings.Username()
	if username == "" {
		return nil, fmt.Errorf("no authenticated user")
	}
	return s.catalog.List(username)
}

// DeleteAllBackups removes every committed artifact for the current user.
func (s *BackupService) DeleteAllBackups() (int, error) {
	username := s.settings.Username()
	if username == "" {
		return 0, fmt.Errorf("no authenticated user")
	}
	deleted, err := s.catalog.DeleteAll(username)
	if err != nil {
		return deleted, err
	}
	if deleted > 0 {
		msg := fmt.Sprintf("Deleted all %d backup file(s).", deleted)
		s.logEvent("backup.delete_all", "warn", msg, &username)
	}
	return deleted, nil
}

// TimeUntilNextBackup returns the remaining countdown, and false when the
// scheduler is disarmed.
func (s *BackupService) TimeUntilNextBackup() (time.Duration, bool) {
	return s.scheduler.TimeUntilNext()
}

// FormatTimeUntilNextBackup renders the countdown for display: HH:MM:SS
// remaining, "due now" at zero, "not scheduled" when disarmed.
func (s *BackupService) FormatTimeUntilNextBackup() string {
	remaining, ok := s.scheduler.TimeUntilNext()
	if !ok {
		return "not scheduled"
	}
	if remaining == 0 {
		return "due now"
	}
	remaining = remaining.Round(time.Second)
	h := int(remaining / time.Hour)
	m := int(remaining/time.Minute) % 60
	sec := int(remaining/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// ApplySettings pushes a settings change to the remote store and brings the
// scheduler in line with the result.
func (s *BackupService) ApplySettings(ctx context.Context, patch models.SettingsPatch) (models.UserSettings, error) {
	username := s.settings.Username()
	if username == "" {
		return models.UserSettings{}, fmt.Errorf("no authenticated user")
	}
	if patch.AutoBackupInterval != nil && !models.ValidInterval(*patch.AutoBackupInterval) {
		return models.UserSettings{}, fmt.Errorf("unsupported backup interval: %d minutes", *patch.AutoBackupInterval)
	}

	if err := s.settings.UpdateSettings(ctx, patch); err != nil {
		return models.UserSettings{}, err
	}
	updated, err := s.settings.GetUserSettings(ctx)
	if err != nil {
		return models.UserSettings{}, err
	}

	schedule, err := s.scheduleSvc.GetSchedule(username)
	if err != nil {
		return updated, err
	}
	intervalChanged := schedule.IntervalMinutes != updated.AutoBackupInterval
	schedule.Username = username
	schedule.Enabled = updated.AutoBackupEnabled
	schedule.IntervalMinutes = updated.AutoBackupInterval
	schedule.MaxRetainedCount = models.ClampRetention(updated.AutoBackupMaxCount)
	if !schedule.Enabled {
		schedule.NextDueAt = nil
	}
	if err := s.scheduleSvc.SaveSchedule(schedule); err != nil {
		return updated, err
	}

	switch {
	case !schedule.Enabled:
		s.scheduler.Stop()
	case !s.scheduler.Armed() || intervalChanged:
		// Reconfiguration restarts the countdown from now; an unchanged
		// interval on an armed timer keeps the remaining time.
		if err := s.scheduler.Start(schedule.IntervalMinutes); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// Shutdown disarms the scheduler. An in-flight write still runs to
// completion; only future ticks are prevented.
func (s *BackupService) Shutdown() {
	s.scheduler.Stop()
}

// runScheduled adapts the pipeline for the scheduler's tick.
func (s *BackupService) runScheduled(context.Context) error {
	_, err := s.runBackup("scheduled")
	return err
}

// runBackup executes the full pipeline once: build, atomically write, then
// enforce retention and mirror the completion time. The loser of the
// in-flight race gets ErrBackupInProgress and causes no side effects.
func (s *BackupService) runBackup(trigger string) (models.BackupArtifact, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return models.BackupArtifact{}, backup.ErrBackupInProgress
	}
	defer s.inFlight.Store(false)

	username := s.settings.Username()
	if username == "" {
		return models.BackupArtifact{}, fmt.Errorf("no authenticated user")
	}

	s.notify("backup.started", map[string]any{"trigger": trigger})

	// The build is bounded by its own timeout; stopping the scheduler never
	// cancels a pass that already started.
	doc, err := s.builder.Build(context.Background(), username)
	if err != nil {
		s.failBackup(trigger, username, err)
		return models.BackupArtifact{}, err
	}

	artifact, err := s.writer.Write(doc)
	if err != nil {
		s.failBackup(trigger, username, err)
		return models.BackupArtifact{}, err
	}

	schedule, err := s.scheduleSvc.GetSchedule(username)
	if err != nil {
		log.Error().Err(err).Msg("Could not load schedule state for retention, using default limit")
		schedule.MaxRetainedCount = models.DefaultMaxRetainedCount
	}
	if err := s.retention.Enforce(username, schedule.MaxRetainedCount); err != nil {
		// The artifact is already committed; a failed eviction bounds the
		// catalog on the next pass instead.
		log.Warn().Err(err).Msg("Retention enforcement incomplete")
		s.logEvent("backup.retention", "warn", err.Error(), &username)
	}

	mirrorCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	committedAt := artifact.CreatedAt
	if err := s.settings.UpdateSettings(mirrorCtx, models.SettingsPatch{LastBackupTime: &committedAt}); err != nil {
		log.Warn().Err(err).Msg("Could not mirror last backup time to settings")
	}

	msg := fmt.Sprintf("Backup %s committed (%d bytes, %s trigger).", artifact.FileName, artifact.SizeBytes, trigger)
	s.logEvent("backup.commit", "info", msg, &username)
	s.notify("backup.completed", map[string]any{"trigger": trigger, "artifact": artifact})

	log.Info().
		Str("file", artifact.FileName).
		Int64("size_bytes", artifact.SizeBytes).
		Str("trigger", trigger).
		Msg("Backup committed")
	return artifact, nil
}

func (s *BackupService) failBackup(trigger, username string, err error) {
	log.Error().Err(err).Str("trigger", trigger).Msg("Backup failed")
	s.logEvent("backup.fail", "error", err.Error(), &username)
	s.notify("backup.failed", map[string]any{"trigger": trigger, "error": err.Error()})
}

// persistNextDue is the scheduler's persistence hook.
func (s *BackupService) persistNextDue(next time.Time) {
	username := s.settings.Username()
	if username == "" {
		return
	}
	if err := s.scheduleSvc.UpdateNextDue(username, &next); err != nil {
		log.Error().Err(err).Msg("Could not persist next backup time")
	}
}

func (s *BackupService) logEvent(eventType, level, message string, username *string) {
	if s.eventSvc == nil {
		return
	}
	if err := s.eventSvc.CreateEvent(eventType, level, message, username); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Could not record event")
	}
}

func (s *BackupService) notify(action string, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(action, payload)
}
