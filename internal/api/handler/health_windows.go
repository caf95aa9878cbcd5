//go:build windows
// +build windows

package handler

// diskStats is a stub on Windows; deployments run in Linux containers.
func diskStats(path string) (total, free, used int64, usedPct float64) {
	return 0, 0, 0, 0
}
