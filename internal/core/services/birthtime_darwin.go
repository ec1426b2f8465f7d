package services

import (
	"io/fs"
	"syscall"
	"time"
)

// birthTime returns the creation time stored in the stat buffer.
func birthTime(_ string, info fs.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(st.Birthtimespec.Unix())
}
