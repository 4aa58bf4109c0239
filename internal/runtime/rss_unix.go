//go:build unix

package runtime

import (
	"os"
	goruntime "runtime"
	"syscall"
)

// peakRSS reads ru_maxrss, which Linux reports in kilobytes and darwin in
// bytes.
func peakRSS(st *os.ProcessState) int64 {
	ru, ok := st.SysUsage().(*syscall.Rusage)
	if !ok || ru == nil {
		return 0
	}
	if goruntime.GOOS == "darwin" || goruntime.GOOS == "ios" {
		return int64(ru.Maxrss)
	}
	return int64(ru.Maxrss) * 1024
}
