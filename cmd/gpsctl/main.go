// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// gpsctl sends a receiver command through the GPS producer.
//
//	gpsctl request-all
//	gpsctl -session device -raw '$PUBX,40,GLL,0,0,0,0*5C'
//	gpsctl -list
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/gnss_tracker/internal/app"
	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/nmea"
)

func main() {
	configPath := flag.String("config", "gnss_config.toml", "Path to configuration file")
	sessionName := flag.String("session", app.DeviceSession, "Session to send the command to")
	raw := flag.String("raw", "", "Send this sentence verbatim instead of a named command")
	list := flag.Bool("list", false, "List named commands and exit")
	flag.Parse()

	if *list {
		for _, name := range nmea.CommandNames() {
			text, _ := nmea.Lookup(name)
			fmt.Printf("%-14s %s\n", name, text)
		}
		return
	}

	name := flag.Arg(0)
	if name == "" && *raw == "" {
		fmt.Fprintln(os.Stderr, "usage: gpsctl [-session name] <command> | -raw <sentence> | -list")
		os.Exit(2)
	}

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunCtl(*sessionName, name, *raw); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
