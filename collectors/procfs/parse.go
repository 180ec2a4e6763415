//go:build linux

package procfs

import (
	"bufio"
	"io/fs"
	"strconv"
	"strings"

	"emperror.dev/errors"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// readCPUTimes parses the aggregate cpu line of /proc/stat.
// Fields: cpu user nice system idle iowait irq softirq steal ...
func (s *Source) readCPUTimes() (cpuTimes, error) {
	f, err := s.open("stat")
	if err != nil {
		return cpuTimes{}, errors.Wrap(err, "open /proc/stat")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return cpuTimes{}, errors.New("/proc/stat cpu line too short")
		}
		var t cpuTimes
		for i := 1; i < len(fields); i++ {
			// guest and guest_nice are already counted in user and nice.
			if i > 8 {
				break
			}
			val, err := strconv.ParseUint(fields[i], 10, 64)
			if err != nil {
				return cpuTimes{}, errors.Wrapf(err, "parse /proc/stat field %d", i)
			}
			t.total += val
			if i == 4 || i == 5 { // idle, iowait
				t.idle += val
			}
		}
		return t, nil
	}
	return cpuTimes{}, errors.New("cpu line not found in /proc/stat")
}

// readMemInfo returns MemTotal and MemAvailable in kB.
func (s *Source) readMemInfo() (total, avail uint64, err error) {
	f, err := s.open("meminfo")
	if err != nil {
		return 0, 0, errors.Wrap(err, "open /proc/meminfo")
	}
	defer f.Close()

	var foundTotal, foundAvail bool
	scanner := bufio.NewScanner(f)
	for !(foundTotal && foundAvail) && scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			if total, err = parseMemInfoLine(line); err != nil {
				return 0, 0, errors.Wrap(err, "parse MemTotal")
			}
			foundTotal = true
		case strings.HasPrefix(line, "MemAvailable:"):
			if avail, err = parseMemInfoLine(line); err != nil {
				return 0, 0, errors.Wrap(err, "parse MemAvailable")
			}
			foundAvail = true
		}
	}

	switch {
	case !foundTotal:
		return 0, 0, errors.New("MemTotal not found in /proc/meminfo")
	case !foundAvail:
		return 0, 0, errors.New("MemAvailable not found in /proc/meminfo")
	case total == 0:
		return 0, 0, errors.New("MemTotal is zero")
	}
	return total, avail, nil
}

// parseMemInfoLine extracts the numeric kB value from a /proc/meminfo line.
// Format: "MemTotal:       16384000 kB"
func parseMemInfoLine(line string) (uint64, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, errors.Errorf("too few fields: %q", line)
	}
	return strconv.ParseUint(fields[1], 10, 64)
}

// readNetDev sums receive and transmit bytes from /proc/net/dev.
//
//	Inter-|   Receive                            |  Transmit
//	 face |bytes    packets errs drop ...        |bytes    packets ...
//	  eth0: 1234    10      0    0    ...         5678     20 ...
func (s *Source) readNetDev() (collectors.NetCounters, error) {
	f, err := s.open("net/dev")
	if err != nil {
		return collectors.NetCounters{}, errors.Wrap(err, "open /proc/net/dev")
	}
	defer f.Close()

	var out collectors.NetCounters
	seen := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		iface, rest, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(iface) == "lo" {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 16 {
			return collectors.NetCounters{}, errors.Errorf("/proc/net/dev: short line for %s", strings.TrimSpace(iface))
		}
		recv, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return collectors.NetCounters{}, errors.Wrap(err, "parse rx bytes")
		}
		sent, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			return collectors.NetCounters{}, errors.Wrap(err, "parse tx bytes")
		}
		out.BytesRecv += recv
		out.BytesSent += sent
		seen++
	}
	if err := scanner.Err(); err != nil {
		return collectors.NetCounters{}, errors.Wrap(err, "read /proc/net/dev")
	}
	if seen == 0 {
		return collectors.NetCounters{}, errors.New("/proc/net/dev: no interfaces")
	}
	return out, nil
}

// pidStat is the subset of /proc/[pid]/stat the source needs.
type pidStat struct {
	comm      string
	utime     uint64
	stime     uint64
	startTime uint64
	rssPages  uint64
}

// readPIDStat parses /proc/[pid]/stat. A missing file means the process
// exited after being listed.
func (s *Source) readPIDStat(pid int32) (pidStat, error) {
	f, err := s.open(strconv.Itoa(int(pid)) + "/stat")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pidStat{}, errors.WithStack(collectors.ErrEnumerationRace)
		}
		return pidStat{}, errors.Wrapf(err, "open stat for pid %d", pid)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return pidStat{}, errors.WithStack(collectors.ErrEnumerationRace)
	}
	return parsePIDStat(scanner.Text())
}

// parsePIDStat parses one /proc/[pid]/stat line. comm may contain spaces and
// parentheses, so it is delimited by the first '(' and the last ')'.
func parsePIDStat(line string) (pidStat, error) {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < open {
		return pidStat{}, errors.Errorf("malformed stat line: %q", line)
	}
	st := pidStat{comm: line[open+1 : closing]}

	// Fields after comm, starting at field 3 (state).
	fields := strings.Fields(line[closing+1:])
	const (
		utimeIdx = 14 - 3
		stimeIdx = 15 - 3
		startIdx = 22 - 3
		rssIdx   = 24 - 3
	)
	if len(fields) <= rssIdx {
		return pidStat{}, errors.Errorf("stat line has %d fields", len(fields)+2)
	}
	var err error
	if st.utime, err = strconv.ParseUint(fields[utimeIdx], 10, 64); err != nil {
		return pidStat{}, errors.Wrap(err, "parse utime")
	}
	if st.stime, err = strconv.ParseUint(fields[stimeIdx], 10, 64); err != nil {
		return pidStat{}, errors.Wrap(err, "parse stime")
	}
	if st.startTime, err = strconv.ParseUint(fields[startIdx], 10, 64); err != nil {
		return pidStat{}, errors.Wrap(err, "parse starttime")
	}
	rss, err := strconv.ParseInt(fields[rssIdx], 10, 64)
	if err != nil {
		return pidStat{}, errors.Wrap(err, "parse rss")
	}
	if rss > 0 {
		st.rssPages = uint64(rss)
	}
	return st, nil
}
