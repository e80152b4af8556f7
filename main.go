package main

import (
	"os"

	"github.com/mgolesberg/osm-railway-conversion/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
