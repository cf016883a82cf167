package main

import (
	"log"

	"github.com/m3rciful/cemtembot/core/cmd"
	"github.com/m3rciful/cemtembot/internal/app"
	"github.com/m3rciful/cemtembot/internal/config"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("cemtembot: %v", err)
	}
}
