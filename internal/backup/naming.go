package backup

import (
	"fmt"
	"strings"
	"time"
)

// Committed artifacts are named backup_<user>_<timestamp>.json. The timestamp
// layout sorts lexically in creation order, so directory order is history
// order. A pending artifact is the same name with a .tmp suffix; the catalog
// never matches it.
const (
	artifactPrefix  = "backup_"
	artifactExt     = ".json"
	pendingSuffix   = ".tmp"
	timestampLayout = "20060102T150405"
)

// artifactFileName builds the committed name for a snapshot taken at ts.
func artifactFileName(username string, ts time.Time) string {
	return fmt.Sprintf("%s%s_%s%s", artifactPrefix, sanitizeUsername(username), ts.UTC().Format(timestampLayout), artifactExt)
}

// parseArtifactFileName extracts the owner and creation time from a committed
// artifact name. ok is false for anything outside the naming convention,
// which is what makes temp files invisible to the catalog by construction.
func parseArtifactFileName(name string) (username string, ts time.Time, ok bool) {
	if !strings.HasPrefix(name, artifactPrefix) || !strings.HasSuffix(name, artifactExt) {
		return "", time.Time{}, false
	}
	core := strings.TrimSuffix(strings.TrimPrefix(name, artifactPrefix), artifactExt)
	idx := strings.LastIndex(core, "_")
	if idx <= 0 {
		return "", time.Time{}, false
	}
	username = core[:idx]
	t, err := time.Parse(timestampLayout, core[idx+1:])
	if err != nil {
		return "", time.Time{}, false
	}
	return username, t.UTC(), true
}

// sanitizeUsername keeps filenames portable: anything outside [a-z A-Z 0-9 -]
// becomes "-". Underscores are replaced too; they separate the name fields.
func sanitizeUsername(username string) string {
	var b strings.Builder
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
