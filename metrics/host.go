package metrics

import (
	"runtime"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/bluele/gcache"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"

	"github.com/Kaccad/Juicyscore-test/log"
)

const hostStatTTL = 1 * time.Second

const (
	loadStatKey = "load"
	memStatKey  = "mem"
)

var hostStats = gcache.New(2).
	LRU().
	Expiration(hostStatTTL).
	LoaderFunc(loadHostStat).
	Build()

func loadHostStat(key interface{}) (interface{}, error) {
	switch key {
	case loadStatKey:
		return load.Avg()
	case memStatKey:
		return mem.VirtualMemory()
	default:
		return nil, gcache.KeyNotFoundError
	}
}

func registerHostMetrics() {
	vm.GetOrCreateGauge("detect_host_load_avg_1", getFloat64HostStat(LoadAvg1))
	vm.GetOrCreateGauge("detect_host_load_avg_5", getFloat64HostStat(LoadAvg5))
	vm.GetOrCreateGauge("detect_host_load_avg_15", getFloat64HostStat(LoadAvg15))

	vm.GetOrCreateGauge("detect_host_mem_total", getUint64HostStat(MemTotal))
	vm.GetOrCreateGauge("detect_host_mem_used", getUint64HostStat(MemUsed))
	vm.GetOrCreateGauge("detect_host_mem_available", getUint64HostStat(MemAvailable))
	vm.GetOrCreateGauge("detect_host_mem_used_percent", getFloat64HostStat(MemUsedPercent))
}

func getUint64HostStat(getStat func() (uint64, bool)) func() float64 {
	return func() float64 {
		val, _ := getStat()
		return float64(val)
	}
}

func getFloat64HostStat(getStat func() (float64, bool)) func() float64 {
	return func() float64 {
		val, _ := getStat()
		return val
	}
}

func getLoadAvg() *load.AvgStat {
	v, err := hostStats.Get(loadStatKey)
	if err != nil {
		log.Warningf("metrics: failed to get load avg: %s", err)
		return nil
	}
	stat, _ := v.(*load.AvgStat)
	return stat
}

// LoadAvg1 returns the 1-minute load average relative to the CPU count.
func LoadAvg1() (loadAvg float64, ok bool) {
	if stat := getLoadAvg(); stat != nil {
		return stat.Load1 / float64(runtime.NumCPU()), true
	}
	return 0, false
}

// LoadAvg5 returns the 5-minute load average relative to the CPU count.
func LoadAvg5() (loadAvg float64, ok bool) {
	if stat := getLoadAvg(); stat != nil {
		return stat.Load5 / float64(runtime.NumCPU()), true
	}
	return 0, false
}

// LoadAvg15 returns the 15-minute load average relative to the CPU count.
func LoadAvg15() (loadAvg float64, ok bool) {
	if stat := getLoadAvg(); stat != nil {
		return stat.Load15 / float64(runtime.NumCPU()), true
	}
	return 0, false
}

func getMemStat() *mem.VirtualMemoryStat {
	v, err := hostStats.Get(memStatKey)
	if err != nil {
		log.Warningf("metrics: failed to get memory stats: %s", err)
		return nil
	}
	stat, _ := v.(*mem.VirtualMemoryStat)
	return stat
}

// MemTotal returns the total amount of memory.
func MemTotal() (total uint64, ok bool) {
	if stat := getMemStat(); stat != nil {
		return stat.Total, true
	}
	return 0, false
}

// MemUsed returns the amount of used memory.
func MemUsed() (used uint64, ok bool) {
	if stat := getMemStat(); stat != nil {
		return stat.Used, true
	}
	return 0, false
}

// MemAvailable returns the amount of available memory.
func MemAvailable() (available uint64, ok bool) {
	if stat := getMemStat(); stat != nil {
		return stat.Available, true
	}
	return 0, false
}

// MemUsedPercent returns the share of used memory in percent.
func MemUsedPercent() (usedPercent float64, ok bool) {
	if stat := getMemStat(); stat != nil {
		return stat.UsedPercent, true
	}
	return 0, false
}
