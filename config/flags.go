package config

import "flag"

var configFilePath string

func init() {
	flag.StringVar(&configFilePath, "config", "", "load configuration from a yaml or json file")
}
