package host

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/bluele/gcache"
	psHost "github.com/shirou/gopsutil/host"

	"github.com/Kaccad/Juicyscore-test/log"
)

const hostInfoTTL = 1 * time.Minute

const hostInfoKey = "host"

// Navigator describes the agent and the machine it runs on.
type Navigator struct {
	UserAgent           string
	Platform            string
	Language            string
	HardwareConcurrency int

	hostInfo gcache.Cache
}

// HostInfo holds details about the machine.
type HostInfo struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Virtualization  string
	Uptime          time.Duration
}

// NewNavigator returns a Navigator for the current process.
func NewNavigator(userAgent string) *Navigator {
	return newNavigator(userAgent, loadHostInfo)
}

func newNavigator(userAgent string, loader func() (*HostInfo, error)) *Navigator {
	return &Navigator{
		UserAgent:           userAgent,
		Platform:            runtime.GOOS + "/" + runtime.GOARCH,
		Language:            detectLanguage(),
		HardwareConcurrency: runtime.NumCPU(),
		hostInfo: gcache.New(1).
			LRU().
			Expiration(hostInfoTTL).
			LoaderFunc(func(interface{}) (interface{}, error) {
				return loader()
			}).
			Build(),
	}
}

// HostInfo returns details about the machine. The result is cached for a minute.
func (nav *Navigator) HostInfo() (*HostInfo, error) {
	v, err := nav.hostInfo.Get(hostInfoKey)
	if err != nil {
		return nil, err
	}
	return v.(*HostInfo), nil
}

func loadHostInfo() (*HostInfo, error) {
	info, err := psHost.Info()
	if err != nil {
		log.Warningf("host: failed to get host info: %s", err)
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}

	virtualization := info.VirtualizationSystem
	if virtualization != "" && info.VirtualizationRole != "" {
		virtualization += "/" + info.VirtualizationRole
	}

	return &HostInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		Virtualization:  virtualization,
		Uptime:          time.Duration(info.Uptime) * time.Second,
	}, nil
}

func detectLanguage() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		value := os.Getenv(key)
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		// en_US.UTF-8 -> en-US
		value = strings.SplitN(value, ".", 2)[0]
		return strings.ReplaceAll(value, "_", "-")
	}
	return "en-US"
}
