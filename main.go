package main

import (
	"os"

	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

func main() {
	logx.Init()
	if err := rootCmd.Execute(); err != nil {
		logx.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
