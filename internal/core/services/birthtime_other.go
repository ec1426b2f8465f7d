//go:build !linux && !darwin && !windows

package services

import (
	"io/fs"
	"time"
)

// birthTime falls back to the modification time where no creation time
// is exposed.
func birthTime(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
