package monitoring

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/shopkeeper-app/shopkeeper-be/internal/services"
)

// lowSpaceThreshold is the free-space fraction below which a warning event
// is recorded.
const lowSpaceThreshold = 0.05

// StatUpdater periodically samples the backup volume and publishes usage to
// connected clients, so the UI can warn before the atomic writer starts
// refusing snapshots.
type StatUpdater struct {
	backupDir string
	eventSvc  services.EventServiceProvider
	notifier  Notifier
	ticker    *time.Ticker
	done      chan bool
	warned    bool
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(backupDir string, eventSvc services.EventServiceProvider, notifier Notifier) *StatUpdater {
	return &StatUpdater{
		backupDir: backupDir,
		eventSvc:  eventSvc,
		notifier:  notifier,
		done:      make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting backup volume stat updater...")
	su.ticker = time.NewTicker(30 * time.Second)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.sample()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping backup volume stat updater.")
			return
		case <-su.ticker.C:
			su.sample()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

func (su *StatUpdater) sample() {
	usage, err := disk.Usage(su.backupDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", su.backupDir).Msg("StatUpdater: disk usage probe failed")
		return
	}

	su.notifier.Notify("disk.usage", map[string]any{
		"totalBytes":  usage.Total,
		"freeBytes":   usage.Free,
		"usedPercent": usage.UsedPercent,
	})

	lowSpace := usage.Total > 0 && float64(usage.Free)/float64(usage.Total) < lowSpaceThreshold
	if lowSpace && !su.warned {
		su.warned = true
		log.Warn().Uint64("free_bytes", usage.Free).Msg("StatUpdater: backup volume is low on space")
		if su.eventSvc != nil {
			su.eventSvc.CreateEvent("disk.low_space", "warn", "Backup volume is low on free space.", nil)
		}
	} else if !lowSpace {
		su.warned = false
	}
}
