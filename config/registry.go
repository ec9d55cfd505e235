package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	optionsLock sync.RWMutex
	options     = make(map[string]*Option)
)

// ForEachOption calls fn for each defined option. If fn returns
// and error the iteration is stopped and the error is returned.
// Note that ForEachOption does not guarantee a stable order of
// iteration between multiple calles. ForEachOption does NOT lock
// opt when calling fn.
func ForEachOption(fn func(opt *Option) error) error {
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	for _, opt := range options {
		if err := fn(opt); err != nil {
			return err
		}
	}
	return nil
}

// ExportOptions exports the registered options. The returned data must be
// treated as immutable.
// The data does not include the current active value.
func ExportOptions() []*Option {
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	list := make([]*Option, 0, len(options))
	for _, opt := range options {
		list = append(list, opt)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Key < list[j].Key
	})
	return list
}

// GetOption returns the option with name or an error
// if the option does not exist. The caller should lock
// the returned option itself for further processing.
func GetOption(name string) (*Option, error) {
	optionsLock.RLock()
	defer optionsLock.RUnlock()

	opt, ok := options[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	return opt, nil
}

// Register registers a new configuration option.
func Register(option *Option) error {
	if option.Name == "" {
		return newInvalidOptionError("missing name", nil)
	}
	if option.Key == "" {
		return newInvalidOptionError("missing key", nil)
	}
	if strings.HasPrefix(option.Key, "/") || strings.HasSuffix(option.Key, "/") {
		return newInvalidOptionError(fmt.Sprintf("key %q must not start or end with a slash", option.Key), nil)
	}
	if option.Description == "" {
		return newInvalidOptionError("missing description", nil)
	}
	if option.OptType == optTypeAny || getTypeName(option.OptType) == "unknown" {
		return newInvalidOptionError("invalid option type", nil)
	}

	var err error
	if option.ValidationRegex != "" {
		option.compiledRegex, err = regexp.Compile(option.ValidationRegex)
		if err != nil {
			return newInvalidOptionError("validation regex failed to compile", err)
		}
	}

	// Check that the default value is valid.
	if option.DefaultValue != nil {
		if _, err = validateValue(option, option.DefaultValue); err != nil {
			return newInvalidOptionError(fmt.Sprintf("default value of %s is invalid", option.Key), err)
		}
	}

	optionsLock.Lock()
	defer optionsLock.Unlock()
	options[option.Key] = option

	return nil
}
