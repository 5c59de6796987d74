// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package nmea

import (
	"fmt"
	"sort"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

// Command is an outbound sentence for the receiver, e.g. a u-blox PUBX
// message.
type Command struct {
	Type string
	Data []string
}

// String renders "$TYPE,data...*CS". A command without data still gets the
// comma after its type.
func (c Command) String() string {
	body := c.Type
	if len(c.Data) == 0 {
		body += ","
	} else {
		body += "," + strings.Join(c.Data, ",")
	}
	return "$" + body + "*" + gonmea.Checksum(body)
}

// Commands is the catalog of named receiver commands. A name may expand to
// several sentences, sent in order.
var Commands = map[string][]Command{
	"set-rate-10hz": {pubx40("GGA", "10")},
	"set-rate-1hz":  {pubx40("GGA", "1")},
	"request-gga":   {pubx40("GGA", "1")},
	"request-rmc":   {pubx40("RMC", "1")},
	"request-gsa":   {pubx40("GSA", "1")},
	"request-all":   {pubx40("GGA", "1"), pubx40("RMC", "1"), pubx40("GSA", "1")},
	"restart":       {{Type: "PUBX", Data: []string{"00"}}},
	"device-info":   {{Type: "PUBX", Data: []string{"00"}}},
}

// PUBX,40 sets the per-port output rate of one NMEA message.
func pubx40(msg, rate string) Command {
	return Command{Type: "PUBX", Data: []string{"40", msg, "0", rate, "0", "0"}}
}

// Lookup returns the named catalog entry as newline-joined sentences.
func Lookup(name string) (string, error) {
	cmds, ok := Commands[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown command %q (known: %s)", name, strings.Join(CommandNames(), ", "))
	}
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n"), nil
}

// CommandNames lists the catalog in sorted order.
func CommandNames() []string {
	names := make([]string, 0, len(Commands))
	for name := range Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
