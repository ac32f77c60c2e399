// Package system reports host and datastore health for the status
// surface.
package system

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/whyhi/wos/internal/canon"
)

// Status is a point-in-time snapshot of the host and the knowledge
// base.
type Status struct {
	Hostname  string       `json:"hostname"`
	OS        string       `json:"os"`
	Arch      string       `json:"arch"`
	CPUUsage  float64      `json:"cpu_usage_percent"`
	MemTotal  uint64       `json:"mem_total_bytes"`
	MemUsed   uint64       `json:"mem_used_bytes"`
	MemUsage  float64      `json:"mem_usage_percent"`
	DiskPath  string       `json:"disk_path"`
	DiskUsed  uint64       `json:"disk_used_bytes"`
	DiskFree  uint64       `json:"disk_free_bytes"`
	Databases []DBInfo     `json:"databases"`
	Canon     *canon.Stats `json:"canon,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// DBInfo is the on-disk footprint of one sqlite database.
type DBInfo struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Exists    bool   `json:"exists"`
}

// Snapshot gathers host metrics plus canon stats. The canon store may
// be nil; db paths that don't exist are reported, not errored.
func Snapshot(ctx context.Context, store *canon.Store, dbPaths ...string) *Status {
	hostname, _ := os.Hostname()

	cpuPercent, _ := cpu.Percent(time.Second, false)
	cpuUsage := 0.0
	if len(cpuPercent) > 0 {
		cpuUsage = cpuPercent[0]
	}

	memInfo, _ := mem.VirtualMemory()
	diskInfo, _ := disk.Usage("/")

	status := &Status{
		Hostname:  hostname,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUUsage:  cpuUsage,
		DiskPath:  "/",
		Timestamp: time.Now().UTC(),
	}

	if memInfo != nil {
		status.MemTotal = memInfo.Total
		status.MemUsed = memInfo.Used
		status.MemUsage = memInfo.UsedPercent
	}
	if diskInfo != nil {
		status.DiskUsed = diskInfo.Used
		status.DiskFree = diskInfo.Free
	}

	for _, path := range dbPaths {
		info := DBInfo{Path: path}
		if fi, err := os.Stat(path); err == nil {
			info.Exists = true
			info.SizeBytes = fi.Size()
		}
		status.Databases = append(status.Databases, info)
	}

	if store != nil {
		if stats, err := store.GetStats(ctx); err == nil {
			status.Canon = stats
		}
	}

	return status
}
