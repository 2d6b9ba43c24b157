package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/services/logger"
)

func main() {
	conf := core.NewConfig()

	stdLogger := log.New(os.Stderr, "ADMIN : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// start CLI
	cli := commandLine{out: os.Stdout}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			if _, ok := err.(*apiError); ok {
				logger.Warn(fmt.Sprintf("error: %v", err))
			} else {
				logger.Error(fmt.Sprintf("error: %v", err), err)
			}
		}
		os.Exit(1)
	}
}
