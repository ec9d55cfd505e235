package detectors

import (
	"context"
	"fmt"

	"github.com/Kaccad/Juicyscore-test/log"
	"github.com/Kaccad/Juicyscore-test/modules"
)

var _ modules.OneShotModule = &Navigator{}

// Navigator reports the properties of the navigator.
type Navigator struct{}

// NewNavigator returns a navigator detector.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Name implements modules.Module.
func (n *Navigator) Name() string { return "navigator" }

// Kind implements modules.Module.
func (n *Navigator) Kind() modules.Kind { return modules.KindOneShot }

// Exec collects the navigator properties. Missing host details are omitted.
func (n *Navigator) Exec(ctx context.Context, scope *modules.Scope) (modules.Result, error) {
	if scope == nil || scope.Nav == nil {
		return nil, fmt.Errorf("%w: navigator", ErrMissingCapability)
	}
	nav := scope.Nav

	result := modules.Result{
		"userAgent":           nav.UserAgent,
		"platform":            nav.Platform,
		"language":            nav.Language,
		"hardwareConcurrency": nav.HardwareConcurrency,
	}

	info, err := nav.HostInfo()
	if err != nil {
		log.Debugf("detectors: navigator reports without host details: %s", err)
		return result, nil
	}
	result["host"] = map[string]interface{}{
		"os":              info.OS,
		"platform":        info.Platform,
		"platformVersion": info.PlatformVersion,
		"kernelVersion":   info.KernelVersion,
		"virtualization":  info.Virtualization,
		"uptime":          info.Uptime.String(),
	}
	return result, nil
}
