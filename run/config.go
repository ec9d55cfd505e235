package run

import (
	"fmt"
	"time"

	"github.com/Kaccad/Juicyscore-test/api"
	"github.com/Kaccad/Juicyscore-test/config"
	"github.com/Kaccad/Juicyscore-test/detectors"
	"github.com/Kaccad/Juicyscore-test/formats/dsd"
	"github.com/Kaccad/Juicyscore-test/log"
)

// Config Keys.
const (
	CfgLogLevelKey       = "core/log/level"
	CfgCopyPasteDelayKey = "queues/events/copyPasteDelay"
	CfgFontsDelayKey     = "queues/data/fontsDelay"
	CfgNavigatorDelayKey = "queues/data/navigatorDelay"
	CfgFontFamiliesKey   = "detectors/fonts/families"
	CfgResultsFormatKey  = "results/format"
)

// Defaults. Delays are in milliseconds.
const (
	defaultCopyPasteDelay = 2000
	defaultFontsDelay     = 1000
	defaultNavigatorDelay = 0
	defaultResultsFormat  = "json"

	delayValidationRegex    = `^[0-9]+$`
	logLevelValidationRegex = `^(trace|debug|info|warning|error|critical)$`
)

var (
	logLevel       config.StringOption
	copyPasteDelay config.IntOption
	fontsDelay     config.IntOption
	navigatorDelay config.IntOption
	fontFamilies   config.StringArrayOption
	resultsFormat  config.StringOption
)

// RegisterConfig registers all config options of the detector.
func RegisterConfig() error {
	for _, option := range []*config.Option{
		{
			Name:            "Log Level",
			Key:             CfgLogLevelKey,
			Description:     "Sets the log level. Overrides the -log flag when set.",
			OptType:         config.OptTypeString,
			DefaultValue:    "info",
			ValidationRegex: logLevelValidationRegex,
		},
		{
			Name:            "Copy/Paste Delay",
			Key:             CfgCopyPasteDelayKey,
			Description:     "Milliseconds to wait before subscribing to copy and paste events.",
			OptType:         config.OptTypeInt,
			DefaultValue:    defaultCopyPasteDelay,
			ValidationRegex: delayValidationRegex,
		},
		{
			Name:            "Fonts Delay",
			Key:             CfgFontsDelayKey,
			Description:     "Milliseconds to wait before detecting fonts.",
			OptType:         config.OptTypeInt,
			DefaultValue:    defaultFontsDelay,
			ValidationRegex: delayValidationRegex,
		},
		{
			Name:            "Navigator Delay",
			Key:             CfgNavigatorDelayKey,
			Description:     "Milliseconds to wait after font detection before reading the navigator.",
			OptType:         config.OptTypeInt,
			DefaultValue:    defaultNavigatorDelay,
			ValidationRegex: delayValidationRegex,
		},
		{
			Name:         "Font Families",
			Key:          CfgFontFamiliesKey,
			Description:  "Font families to check for.",
			OptType:      config.OptTypeStringArray,
			DefaultValue: detectors.DefaultFontFamilies,
		},
		{
			Name:            "Results Format",
			Key:             CfgResultsFormatKey,
			Description:     "Format of the results written to stdout: json, yaml, cbor or msgpack.",
			OptType:         config.OptTypeString,
			DefaultValue:    defaultResultsFormat,
			ValidationRegex: `^(json|yaml|cbor|msgpack)$`,
		},
	} {
		if err := config.Register(option); err != nil {
			return err
		}
	}

	logLevel = config.GetAsString(CfgLogLevelKey, "info")
	copyPasteDelay = config.GetAsInt(CfgCopyPasteDelayKey, defaultCopyPasteDelay)
	fontsDelay = config.GetAsInt(CfgFontsDelayKey, defaultFontsDelay)
	navigatorDelay = config.GetAsInt(CfgNavigatorDelayKey, defaultNavigatorDelay)
	fontFamilies = config.GetAsStringArray(CfgFontFamiliesKey, detectors.DefaultFontFamilies)
	resultsFormat = config.GetAsString(CfgResultsFormatKey, defaultResultsFormat)

	config.OnChange(applyLogLevel)

	return api.RegisterConfig()
}

// applyLogLevel sets the log level from the config, if the user set one.
func applyLogLevel() {
	option, err := config.GetOption(CfgLogLevelKey)
	if err != nil || !option.IsSetByUser() {
		return
	}

	level := log.ParseLevel(logLevel())
	if level != 0 && level != log.GetLogLevel() {
		log.SetLogLevel(level)
		log.Infof("run: log level set to %s", level)
	}
}

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func getResultsFormat() (dsd.SerializationFormat, error) {
	format, err := dsd.ParseFormat(resultsFormat())
	if err != nil {
		return 0, fmt.Errorf("invalid results format: %w", err)
	}
	return format, nil
}
