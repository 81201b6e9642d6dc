package main

import (
	"os"

	"github.com/quartzlab/tradedesk/cmd/tradedesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
