package config

import (
	"github.com/mitchellh/copystructure"

	"github.com/Kaccad/Juicyscore-test/log"
)

type (
	// StringOption defines the returned function by GetAsString.
	StringOption func() string
	// StringArrayOption defines the returned function by GetAsStringArray.
	StringArrayOption func() []string
	// IntOption defines the returned function by GetAsInt.
	IntOption func() int64
	// BoolOption defines the returned function by GetAsBool.
	BoolOption func() bool
)

// GetAsString returns a function that returns the wanted string with high performance.
func GetAsString(name string, fallback string) StringOption {
	valid := getValidityFlag()
	value := findStringValue(name, fallback)
	return func() string {
		if !valid.IsSet() {
			valid = getValidityFlag()
			value = findStringValue(name, fallback)
		}
		return value
	}
}

// GetAsStringArray returns a function that returns the wanted string with high performance.
// The returned slice is a copy and may be modified by the caller.
func GetAsStringArray(name string, fallback []string) StringArrayOption {
	valid := getValidityFlag()
	value := findStringArrayValue(name, fallback)
	return func() []string {
		if !valid.IsSet() {
			valid = getValidityFlag()
			value = findStringArrayValue(name, fallback)
		}
		copied, err := copystructure.Copy(value)
		if err != nil {
			return value
		}
		return copied.([]string)
	}
}

// GetAsInt returns a function that returns the wanted int with high performance.
func GetAsInt(name string, fallback int64) IntOption {
	valid := getValidityFlag()
	value := findIntValue(name, fallback)
	return func() int64 {
		if !valid.IsSet() {
			valid = getValidityFlag()
			value = findIntValue(name, fallback)
		}
		return value
	}
}

// GetAsBool returns a function that returns the wanted int with high performance.
func GetAsBool(name string, fallback bool) BoolOption {
	valid := getValidityFlag()
	value := findBoolValue(name, fallback)
	return func() bool {
		if !valid.IsSet() {
			valid = getValidityFlag()
			value = findBoolValue(name, fallback)
		}
		return value
	}
}

// findValue finds the preferred value in the user or default config.
func findValue(key string) interface{} {
	optionsLock.RLock()
	option, ok := options[key]
	optionsLock.RUnlock()
	if !ok {
		log.Errorf("config: request for unregistered option: %s", key)
		return nil
	}

	option.Lock()
	defer option.Unlock()

	if option.activeValue != nil {
		return option.activeValue.getData(option)
	}

	return option.DefaultValue
}

func findStringValue(key string, fallback string) string {
	v, ok := findValue(key).(string)
	if ok {
		return v
	}
	return fallback
}

func findStringArrayValue(key string, fallback []string) []string {
	switch v := findValue(key).(type) {
	case []string:
		return v
	case []interface{}:
		converted := make([]string, len(v))
		for i, val := range v {
			s, ok := val.(string)
			if !ok {
				return fallback
			}
			converted[i] = s
		}
		return converted
	}
	return fallback
}

func findIntValue(key string, fallback int64) int64 {
	v, ok := toInt64(findValue(key))
	if ok {
		return v
	}
	return fallback
}

func findBoolValue(key string, fallback bool) bool {
	v, ok := findValue(key).(bool)
	if ok {
		return v
	}
	return fallback
}
