package config

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/tevino/abool"
)

var (
	validityFlag     = abool.NewBool(true)
	validityFlagLock sync.RWMutex

	changeHooks     []func()
	changeHooksLock sync.Mutex
)

// getValidityFlag returns a flag that signifies if the configuration has been changed. This flag must not be changed, only read.
func getValidityFlag() *abool.AtomicBool {
	validityFlagLock.RLock()
	defer validityFlagLock.RUnlock()
	return validityFlag
}

// OnChange registers a function that is called after every configuration change.
func OnChange(fn func()) {
	changeHooksLock.Lock()
	defer changeHooksLock.Unlock()
	changeHooks = append(changeHooks, fn)
}

// signalChanges marks the configs validityFlag as dirty and
// calls the registered change hooks.
func signalChanges() {
	// reset validity flag
	validityFlagLock.Lock()
	validityFlag.SetTo(false)
	validityFlag = abool.NewBool(true)
	validityFlagLock.Unlock()

	changeHooksLock.Lock()
	hooks := make([]func(), len(changeHooks))
	copy(hooks, changeHooks)
	changeHooksLock.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// SetConfig replaces the user defined config. Options missing from
// newValues are reset to their default. Invalid values are skipped and
// reported in the returned error.
func SetConfig(newValues map[string]interface{}) error {
	var errs *multierror.Error

	// RLock the options because we are not adding or removing
	// options from the registration but rather only update the
	// options value which is guarded by the option's lock itself
	optionsLock.RLock()
	for key, option := range options {
		newValue, ok := newValues[key]

		option.Lock()
		option.activeValue = nil
		if ok {
			valueCache, err := validateValue(option, newValue)
			if err == nil {
				option.activeValue = valueCache
			} else {
				errs = multierror.Append(errs, err)
			}
		}
		option.Unlock()
	}
	for key := range newValues {
		if _, ok := options[key]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s", ErrUnknownOption, key))
		}
	}
	optionsLock.RUnlock()

	signalChanges()

	return errs.ErrorOrNil()
}

// SetConfigOption sets a single value in the user defined config.
func SetConfigOption(key string, value interface{}) error {
	option, err := GetOption(key)
	if err != nil {
		return err
	}

	option.Lock()
	if value == nil {
		option.activeValue = nil
	} else {
		valueCache, err := validateValue(option, value)
		if err != nil {
			option.Unlock()
			return err
		}
		option.activeValue = valueCache
	}
	option.Unlock()

	signalChanges()

	return nil
}
