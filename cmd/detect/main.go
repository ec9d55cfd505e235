package main

import (
	"os"

	"github.com/Kaccad/Juicyscore-test/info"
	"github.com/Kaccad/Juicyscore-test/run"
)

func main() {
	info.Set("Detect", "0.1.0", "MIT")
	os.Exit(run.Run())
}
