// Package config provides a registry of typed configuration options.
//
// Options are registered with a key in the format `category/sub/key`, a type
// and a default value. Values are read through getter closures, which cache
// the value until the configuration changes:
//
//	delay := config.GetAsInt("queues/data/fontsDelay", 1000)
//	fmt.Println(delay())
//
// User values can be loaded from a yaml or json file, where nested objects are
// flattened into option keys.
package config
