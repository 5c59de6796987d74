// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gnss_tracker/internal/config"
	"github.com/relabs-tech/gnss_tracker/internal/geo"
	"github.com/relabs-tech/gnss_tracker/internal/publish"
	"github.com/relabs-tech/gnss_tracker/internal/session"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13

	// pageDuration is how long each page stays on screen.
	pageDuration = 3 * time.Second
)

// Display pages, shown in rotation.
const (
	pagePosition = iota
	pageMotion
	pageQuality
	pageCount
)

// DisplayData holds the latest device snapshot for the display loop.
type DisplayData struct {
	mu    sync.RWMutex
	state session.State
	have  bool
}

func (d *DisplayData) set(st session.State) {
	d.mu.Lock()
	d.state = st
	d.have = true
	d.mu.Unlock()
}

func (d *DisplayData) get() (session.State, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state, d.have
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, uint16(cfg.DisplayI2CAddr), &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := draw(dev, []string{"", "GNSS Tracker", "Looking for", "sats"}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicGPS, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var env publish.Envelope[session.State]
		if err := json.Unmarshal(msg.Payload(), &env); err != nil {
			log.Printf("display: snapshot unmarshal error: %v", err)
			return
		}
		if env.Session != DeviceSession {
			return
		}
		data.set(env.Data)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicGPS)

	interval := time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	start := time.Now()
	for now := range ticker.C {
		page := int(now.Sub(start)/pageDuration) % pageCount
		st, have := data.get()
		if err := draw(dev, displayLines(st, have, page)); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
	return nil
}

// displayLines returns up to four text lines for one page.
func displayLines(st session.State, have bool, page int) []string {
	if !have {
		return []string{"", "GPS", "Waiting..."}
	}
	if st.Phase != session.PhaseConnected {
		lines := []string{"GPS " + st.Phase.String()}
		if st.Error != "" {
			lines = append(lines, truncate(st.Error, displayWidth/7))
		}
		return lines
	}
	if st.Latest == nil {
		return []string{"GPS Connected", "No fix yet", fmt.Sprintf("%d sentences", st.Stats.Sentences)}
	}

	switch page {
	case pageMotion:
		return []string{
			"Motion",
			fmt.Sprintf("Spd: %.1fkm/h", geo.MSToKmh(st.Speed)),
			fmt.Sprintf("Brg: %.0f", st.Bearing),
			fmt.Sprintf("Dst: %s", distance(st.Distance)),
		}
	case pageQuality:
		lines := []string{"Quality"}
		if st.Score != nil {
			lines = append(lines, fmt.Sprintf("%d %s", st.Score.Score, st.Score.Band))
		}
		if st.LastGGA != nil {
			lines = append(lines,
				fmt.Sprintf("Sats: %d", st.LastGGA.Satellites),
				fmt.Sprintf("HDOP: %.1f", st.LastGGA.HDOP))
		}
		return lines
	}

	lat, latDir := st.Latest.Latitude, "N"
	if lat < 0 {
		lat, latDir = -lat, "S"
	}
	lon, lonDir := st.Latest.Longitude, "E"
	if lon < 0 {
		lon, lonDir = -lon, "W"
	}
	lines := []string{
		fmt.Sprintf("%.5f%s", lat, latDir),
		fmt.Sprintf("%.5f%s", lon, lonDir),
	}
	if st.LastGGA != nil {
		lines = append(lines, fmt.Sprintf("Alt: %.0fm", st.LastGGA.Altitude))
	}
	return lines
}

func distance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.2fkm", m/1000)
	}
	return fmt.Sprintf("%.0fm", m)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// render draws lines top to bottom in the 7x13 font.
func render(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if (i+1)*lineHeight > displayHeight {
			break
		}
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(line)
	}
	return img
}

func draw(dev *ssd1306.Dev, lines []string) error {
	return dev.Draw(dev.Bounds(), render(lines), image.Point{})
}
