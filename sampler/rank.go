package sampler

import (
	"sort"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// RankProcesses orders procs by CPU usage, highest first, and keeps at most
// limit entries. Equal CPU values keep their input order. A limit <= 0, or one
// at least as large as the number of valid entries, keeps everything.
// Entries with unreadable metrics are dropped and counted; procs is not
// modified.
func RankProcesses(procs []collectors.ProcessInfo, limit int) collectors.ProcessList {
	valid := make([]collectors.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		if p.Valid() {
			valid = append(valid, p)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].CPUPercent > valid[j].CPUPercent
	})

	list := collectors.ProcessList{
		Total:   len(valid),
		Limit:   limit,
		Dropped: len(procs) - len(valid),
	}
	if limit > 0 && limit < len(valid) {
		valid = valid[:limit:limit]
	}
	list.Entries = valid
	return list
}
