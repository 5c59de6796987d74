// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gnss_tracker/internal/app"
	"github.com/relabs-tech/gnss_tracker/internal/config"
)

func main() {
	configPath := flag.String("config", "gnss_config.toml", "Path to configuration file")
	flag.Parse()

	log.Println("starting gnss-tracker GPS producer (NMEA → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunGPSProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
