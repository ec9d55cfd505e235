package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Kaccad/Juicyscore-test/log"
)

// Load applies the config file given with the -config flag, if any.
func Load() error {
	if configFilePath == "" {
		return nil
	}
	return LoadFile(configFilePath)
}

// LoadFile reads a YAML or JSON config file and applies it as the user config.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	newValues, err := YAMLToMap(data)
	if err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	log.Infof("config: loaded %d values from %s", len(newValues), path)
	return SetConfig(newValues)
}

// YAMLToMap parses and flattens a hierarchical yaml (or json) document.
func YAMLToMap(yamlData []byte) (map[string]interface{}, error) {
	jsonData, err := yaml.YAMLToJSON(yamlData)
	if err != nil {
		return nil, err
	}
	return JSONToMap(jsonData)
}

// JSONToMap parses and flattens a hierarchical json object.
func JSONToMap(jsonData []byte) (map[string]interface{}, error) {
	if !gjson.ValidBytes(jsonData) {
		return nil, fmt.Errorf("%w: malformed json", ErrInvalidData)
	}
	parsed := gjson.ParseBytes(jsonData)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidData)
	}

	loaded := make(map[string]interface{})
	flatten(loaded, parsed, "")
	return loaded, nil
}

func flatten(rootMap map[string]interface{}, subMap gjson.Result, subKey string) {
	subMap.ForEach(func(key, entry gjson.Result) bool {
		// get next level key
		subbedKey := key.String()
		if subKey != "" {
			subbedKey = subKey + "/" + subbedKey
		}

		// check for next subMap
		if entry.IsObject() {
			flatten(rootMap, entry, subbedKey)
		} else {
			rootMap[subbedKey] = entry.Value()
		}
		return true
	})
}

// ExportJSON exports all user set values as a hierarchical json object.
func ExportJSON() ([]byte, error) {
	optionsLock.RLock()
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	optionsLock.RUnlock()
	sort.Strings(keys)

	data := []byte("{}")
	for _, key := range keys {
		option, err := GetOption(key)
		if err != nil {
			continue
		}
		value := option.UserValue()
		if value == nil {
			continue
		}

		path := strings.ReplaceAll(strings.ReplaceAll(key, ".", `\.`), "/", ".")
		data, err = sjson.SetBytes(data, path, value)
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}
