// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package geo holds the spherical-earth helpers used to turn successive
// fixes into distance, speed and bearing.
package geo

import (
	"math"
	"time"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000.0

// KnotsToMS converts knots to meters per second.
const KnotsToMS = 0.514444

// Point is a position in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lon, 0)
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(r float64) float64   { return r * 180 / math.Pi }

// Distance is the haversine great-circle distance in meters. It is zero for
// identical points and for non-finite input.
func Distance(a, b Point) float64 {
	if !a.valid() || !b.valid() || a == b {
		return 0
	}
	dLat := rad(b.Lat - a.Lat)
	dLon := rad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing is the initial great-circle bearing from a to b in degrees,
// normalized to [0, 360).
func Bearing(a, b Point) float64 {
	if !a.valid() || !b.valid() {
		return 0
	}
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dLon := rad(b.Lon - a.Lon)
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	br := math.Mod(deg(math.Atan2(y, x))+360, 360)
	if br >= 360 {
		br = 0
	}
	return br
}

// Destination returns the point reached by travelling dist meters from p on
// the given initial bearing.
func Destination(p Point, bearing, dist float64) Point {
	d := dist / EarthRadius
	th := rad(bearing)
	lat1, lon1 := rad(p.Lat), rad(p.Lon)
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(th))
	lon2 := lon1 + math.Atan2(math.Sin(th)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	lon := math.Mod(deg(lon2)+540, 360) - 180
	return Point{Lat: deg(lat2), Lon: lon}
}

// DeriveSpeed returns distance/elapsed in m/s, or prev when no time has
// passed.
func DeriveSpeed(prev, distance float64, elapsed time.Duration) float64 {
	if elapsed <= 0 || math.IsNaN(distance) {
		return prev
	}
	return distance / elapsed.Seconds()
}

// MSToKmh converts meters per second to kilometers per hour.
func MSToKmh(ms float64) float64 { return ms * 3.6 }
