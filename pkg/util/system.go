package util

import (
	"runtime"

	"github.com/shirou/gopsutil/mem"
)

// SystemStats process and host stats
type SystemStats struct {
	MemTotal       uint64  `json:"memTotal"`
	MemUsed        uint64  `json:"memUsed"`
	MemUsedPercent float64 `json:"memUsedPercent"`
	Goroutines     int     `json:"goroutines"`
	CPUs           int     `json:"cpus"`
}

// Stats returns the host memory usage and the process runtime stats
func Stats() (*SystemStats, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}

	return &SystemStats{
		MemTotal:       vm.Total,
		MemUsed:        vm.Used,
		MemUsedPercent: vm.UsedPercent,
		Goroutines:     runtime.NumGoroutine(),
		CPUs:           runtime.NumCPU(),
	}, nil
}
