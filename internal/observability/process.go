package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats снимок потребления ресурсов процессом мешера
type ProcessStats struct {
	Uptime     time.Duration
	CPUPercent float64
	RSSMB      float64 // резидентная память по данным ОС
	HeapMB     float64
	NumGC      uint32
	Goroutines int
}

// String форматирует снимок для лога
func (s ProcessStats) String() string {
	return fmt.Sprintf("uptime=%s cpu=%.1f%% rss=%.1fMB heap=%.1fMB gc=%d goroutines=%d",
		FormatUptime(s.Uptime), s.CPUPercent, s.RSSMB, s.HeapMB, s.NumGC, s.Goroutines)
}

// ProcessMetrics собирает метрики текущего процесса
type ProcessMetrics struct {
	StartTime time.Time
}

// NewProcessMetrics создает новый экземпляр метрик
func NewProcessMetrics() *ProcessMetrics {
	return &ProcessMetrics{
		StartTime: time.Now(),
	}
}

// FormatUptime возвращает время работы в читаемом виде
func FormatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	}
	return fmt.Sprintf("%dс", seconds)
}

// Snapshot возвращает текущие показатели процесса
func (pm *ProcessMetrics) Snapshot() (ProcessStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := ProcessStats{
		Uptime:     time.Since(pm.StartTime),
		HeapMB:     float64(m.HeapAlloc) / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats, fmt.Errorf("ошибка доступа к процессу: %w", err)
	}

	// Процент CPU процесса с момента его запуска
	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, sysErr := cpu.Percent(100*time.Millisecond, false)
		if sysErr != nil || len(cpuPercents) == 0 {
			return stats, fmt.Errorf("ошибка чтения CPU: %w", err)
		}
		cpuPercent = cpuPercents[0]
	}
	stats.CPUPercent = cpuPercent

	mem, err := proc.MemoryInfo()
	if err != nil {
		return stats, fmt.Errorf("ошибка чтения памяти процесса: %w", err)
	}
	stats.RSSMB = float64(mem.RSS) / 1024 / 1024
	return stats, nil
}
