package runtime

import (
	"bufio"
	"bytes"
	"os"
	goruntime "runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SystemInfo is the row written to system_info.csv.
type SystemInfo struct {
	TotalRAMGB float64 `csv:"Total_RAM_GB"`
	CPUCores   int     `csv:"CPU_cores"`
}

const meminfoPath = "/proc/meminfo"

// HostInfo describes the current machine.
func HostInfo() (SystemInfo, error) {
	raw, err := os.ReadFile(meminfoPath)
	if err != nil {
		return SystemInfo{}, errors.Wrap(err, "read total memory")
	}
	kb, err := parseMemTotal(raw)
	if err != nil {
		return SystemInfo{}, err
	}
	return SystemInfo{
		TotalRAMGB: float64(kb) / (1024 * 1024),
		CPUCores:   goruntime.NumCPU(),
	}, nil
}

// parseMemTotal extracts MemTotal in kB from /proc/meminfo content.
func parseMemTotal(raw []byte) (int64, error) {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "MemTotal:"))
		if len(fields) == 0 {
			break
		}
		kb, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse MemTotal %q", fields[0])
		}
		return kb, nil
	}
	return 0, errors.New("MemTotal not found in meminfo")
}
