package api

import (
	"flag"

	"github.com/Kaccad/Juicyscore-test/config"
	"github.com/Kaccad/Juicyscore-test/log"
)

// CfgListenAddressKey is the config key of the API listen address.
const CfgListenAddressKey = "api/listen"

var (
	listenAddressFlag   string
	listenAddressConfig config.StringOption
)

func init() {
	flag.StringVar(&listenAddressFlag, "api-address", "", "override api listen address")
}

// RegisterConfig registers the config options of the API.
func RegisterConfig() error {
	err := config.Register(&config.Option{
		Name:            "API Address",
		Key:             CfgListenAddressKey,
		Description:     "Defines the address and port for the API. The API is disabled when empty.",
		OptType:         config.OptTypeString,
		DefaultValue:    "",
		ValidationRegex: `^(|[^\s]*:[0-9]{1,5})$`,
	})
	if err != nil {
		return err
	}
	listenAddressConfig = config.GetAsString(CfgListenAddressKey, "")

	return nil
}

// ListenAddress returns the configured listen address, which may be
// overridden by the -api-address flag. An empty address disables the API.
func ListenAddress() string {
	if listenAddressFlag != "" {
		log.Warning("api: api/listen config is being overridden by -api-address flag")
		return listenAddressFlag
	}
	if listenAddressConfig == nil {
		return ""
	}
	return listenAddressConfig()
}
