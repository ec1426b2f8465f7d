package services

import (
	"io/fs"
	"syscall"
	"time"
)

// birthTime returns the creation time from the file attribute data.
func birthTime(_ string, info fs.FileInfo) time.Time {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(0, attrs.CreationTime.Nanoseconds())
}
