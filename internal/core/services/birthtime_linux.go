package services

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime reads the creation time with statx. Filesystems and kernels
// without STATX_BTIME fall back to the modification time.
func birthTime(path string, info fs.FileInfo) time.Time {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return info.ModTime()
	}
	if stx.Mask&unix.STATX_BTIME == 0 || (stx.Btime.Sec == 0 && stx.Btime.Nsec == 0) {
		return info.ModTime()
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
