package info

import (
	"flag"
)

var showVersion bool

func init() {
	flag.BoolVar(&showVersion, "version", false, "show version and exit")
}

// ShowVersion returns whether the version was requested on the command line.
func ShowVersion() bool {
	return showVersion
}
