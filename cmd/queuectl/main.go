package main

import (
	"os"

	"queuectl/internal/cli"
)

func main() {
	app := cli.NewApp()
	if err := cli.NewRootCmd(app).Execute(); err != nil {
		os.Exit(1)
	}
}
