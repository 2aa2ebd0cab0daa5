// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package collectors

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/intelfuse/warroom/services/analysis/config"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/scoring"
)

const (
	adsbURL          = "https://opendata.adsb.fi/api/v2/lat/27.0/lon/55.0/dist/250"
	vesselFinderURL  = "https://www.vesselfinder.com/api/pub/vesselsonmap"
	marineTrafficURL = "https://www.marinetraffic.com/getData/get_data_json_4"

	// The Persian Gulf box the vessel providers are queried with.
	gulfBBox = "48,22,62,30"

	maxMovementAlerts = 10
)

const (
	categorySurveillance = "surveillance"
	categoryTanker       = "tanker"
	categoryTransport    = "transport"
)

// MovementCollector tracks military air and maritime activity via public
// ADS-B and AIS aggregators.
type MovementCollector struct {
	fetch  *Fetcher
	tables *config.Tables
}

func NewMovementCollector(fetch *Fetcher, tables *config.Tables) *MovementCollector {
	return &MovementCollector{fetch: fetch, tables: tables}
}

func (m *MovementCollector) Domain() datatypes.Domain { return datatypes.DomainMovement }

func (m *MovementCollector) Collect(ctx context.Context, target Target) (datatypes.SignalRecord, error) {
	var (
		aircraft []datatypes.Aircraft
		vessels  []datatypes.Vessel
	)

	// Each feed degrades to empty on its own; only a hard context error
	// aborts the collection.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aircraft = m.fetchAircraft(gctx)
		return gctx.Err()
	})
	g.Go(func() error {
		vessels = m.fetchVessels(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return datatypes.SignalRecord{}, err
	}

	score := m.score(aircraft, vessels)
	return datatypes.SignalRecord{
		Domain:   datatypes.DomainMovement,
		SubScore: score,
		Summary: fmt.Sprintf("%d military-relevant aircraft detected, %d likely warships in region. Movement activity score: %.1f.",
			len(aircraft), len(vessels), score),
		Movement: &datatypes.MovementPayload{
			Aircraft: aircraft,
			Vessels:  vessels,
			Alerts:   m.buildAlerts(aircraft, vessels),
		},
	}, nil
}

func (m *MovementCollector) fetchAircraft(ctx context.Context) []datatypes.Aircraft {
	var payload any
	if err := m.fetch.GetJSON(ctx, adsbURL, nil, &payload); err != nil {
		return nil
	}

	var results []datatypes.Aircraft
	for _, row := range listUnder(payload, "ac", "aircraft", "states") {
		callsign := strings.TrimSpace(firstString(row, "flight", "callsign", "cs"))
		acType := firstString(row, "type", "t", "aircraft_type", "desc")
		if callsign == "" && acType == "" {
			continue
		}

		category := m.classifyAircraft(callsign, acType)
		if category == "" {
			continue
		}

		lat, latOK := asFloat(coalesce(row, "lat", "latitude"))
		lon, lonOK := asFloat(coalesce(row, "lon", "longitude"))
		if !latOK || !lonOK {
			continue
		}

		ac := datatypes.Aircraft{
			Callsign: callsign,
			Type:     acType,
			Lat:      lat,
			Lon:      lon,
			Category: category,
		}
		if alt, ok := asFloat(coalesce(row, "alt_baro", "altitude", "alt")); ok {
			altFt := int(alt)
			ac.AltitudeFt = &altFt
		}
		results = append(results, ac)
	}
	return results
}

// classifyAircraft buckets an airframe by callsign prefix and type, or
// returns empty when it is not military-relevant.
func (m *MovementCollector) classifyAircraft(callsign, acType string) string {
	cs := strings.ToUpper(callsign)
	typ := strings.ToUpper(acType)

	isTanker := false
	for _, t := range m.tables.Movement.TankerTypes {
		if strings.Contains(typ, t) {
			isTanker = true
			break
		}
	}

	for _, prefix := range m.tables.Movement.MilitaryCallsigns {
		if strings.HasPrefix(cs, prefix) {
			// Military callsigns are usually transport unless the type
			// says tanker.
			if isTanker {
				return categoryTanker
			}
			return categoryTransport
		}
	}

	for _, t := range m.tables.Movement.SurveillanceTypes {
		if strings.Contains(typ, t) {
			return categorySurveillance
		}
	}
	if isTanker {
		return categoryTanker
	}
	return ""
}

// fetchVessels tries VesselFinder first, falling back to MarineTraffic.
func (m *MovementCollector) fetchVessels(ctx context.Context) []datatypes.Vessel {
	var payload any
	err := m.fetch.GetJSON(ctx, vesselFinderURL, url.Values{"bbox": {gulfBBox}}, &payload)
	if err != nil || len(listUnder(payload, "vessels", "data", "rows")) == 0 {
		payload = nil
		if err := m.fetch.GetJSON(ctx, marineTrafficURL, nil, &payload); err != nil {
			return nil
		}
	}

	var results []datatypes.Vessel
	for _, row := range listUnder(payload, "vessels", "data", "rows") {
		name := firstString(row, "name", "NAME", "shipname", "SHIPNAME")
		shipType := firstString(row, "type", "TYPE", "ship_type", "SHIPTYPE")

		// Some providers nest AIS data.
		if ais, ok := row["AIS"].(map[string]any); ok {
			if v := firstString(ais, "NAME"); v != "" {
				name = v
			}
			if v := firstString(ais, "TYPE"); v != "" {
				shipType = v
			}
		}

		name = strings.TrimSpace(name)
		shipType = strings.TrimSpace(shipType)
		if name == "" && shipType == "" {
			continue
		}
		if !m.isWarship(name, shipType) {
			continue
		}

		lat, latOK := asFloat(coalesce(row, "lat", "LATITUDE"))
		lon, lonOK := asFloat(coalesce(row, "lon", "LONGITUDE"))
		if !latOK || !lonOK {
			continue
		}

		results = append(results, datatypes.Vessel{Name: name, Type: shipType, Lat: lat, Lon: lon})
	}
	return results
}

func (m *MovementCollector) isWarship(name, shipType string) bool {
	if containsAnyKeyword(name, m.tables.Movement.WarshipKeywords) ||
		containsAnyKeyword(shipType, m.tables.Movement.WarshipKeywords) {
		return true
	}
	// Hull prefixes are case-sensitive on purpose, "USS " in a lowercase
	// blurb is noise.
	for _, prefix := range m.tables.Movement.HullPrefixes {
		if strings.Contains(name, prefix) {
			return true
		}
	}
	return false
}

func (m *MovementCollector) score(aircraft []datatypes.Aircraft, vessels []datatypes.Vessel) float64 {
	var surveillance, tankers float64
	for _, ac := range aircraft {
		switch ac.Category {
		case categorySurveillance:
			surveillance++
		case categoryTanker:
			tankers++
		}
	}

	score := 30.0
	score += min(surveillance*10, 40)
	score += tankers * 8
	score += min(float64(len(vessels))*5, 20)
	return scoring.ClampScore(score)
}

func (m *MovementCollector) buildAlerts(aircraft []datatypes.Aircraft, vessels []datatypes.Vessel) []string {
	var alerts []string

	for _, ac := range aircraft {
		callsign := ac.Callsign
		if callsign == "" {
			callsign = "Unknown"
		}
		switch ac.Category {
		case categorySurveillance:
			typ := strings.ToUpper(ac.Type)
			if typ == "" {
				typ = "Surveillance aircraft"
			}
			alerts = append(alerts, fmt.Sprintf("%s (%s) detected - active ISR mission.", typ, callsign))
		case categoryTanker:
			alerts = append(alerts, fmt.Sprintf("Tanker (%s) detected - indicates sustained air operations.", callsign))
		}
	}

	for _, v := range vessels {
		name := v.Name
		if name == "" {
			name = "Warship"
		}
		alerts = append(alerts, fmt.Sprintf("%s detected in Persian Gulf - naval presence heightened.", name))
	}

	// Deduplicate preserving order, cap the list.
	seen := make(map[string]bool, len(alerts))
	unique := alerts[:0]
	for _, alert := range alerts {
		if seen[alert] {
			continue
		}
		seen[alert] = true
		unique = append(unique, alert)
		if len(unique) >= maxMovementAlerts {
			break
		}
	}
	return unique
}

func coalesce(row map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
