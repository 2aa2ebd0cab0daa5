// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/export"
)

// A run fans out to five live feeds plus two reasoning calls, so the
// client waits far longer than a typical API round trip.
var httpClient = &http.Client{Timeout: 5 * time.Minute}

func runAnalyzeCommand(cmd *cobra.Command, args []string) {
	conflict := strings.Join(args, " ")
	fmt.Printf("Analyzing conflict: %s\n", conflict)
	fmt.Println("---")

	cliLog.Debug("Sending analyze request", "conflict", conflict, "server", serverURL)
	assessment, err := sendAnalyzeRequest(conflict)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	cliLog.Debug("Assessment received",
		"assessment_id", assessment.ID, "threat_level", assessment.ThreatLevel)

	if outputJSON {
		raw, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		fmt.Println(string(raw))
	} else {
		fmt.Println(renderAssessment(assessment))
	}

	if exportPath != "" {
		report := export.Render(assessment)
		if err := os.WriteFile(exportPath, []byte(report), 0644); err != nil {
			log.Fatalf("Error writing brief to %s: %v", exportPath, err)
		}
		fmt.Printf("Brief written to %s\n", exportPath)
	}
}

func sendAnalyzeRequest(conflict string) (*datatypes.CompositeAssessment, error) {
	body, err := json.Marshal(datatypes.AnalyzeRequest{Conflict: conflict})
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Post(serverURL+"/v1/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach the analysis service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var errResp datatypes.ErrorResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("service returned %s: %s", resp.Status, errResp.Error)
		}
		return nil, fmt.Errorf("service returned %s", resp.Status)
	}

	var assessment datatypes.CompositeAssessment
	if err := json.Unmarshal(raw, &assessment); err != nil {
		return nil, fmt.Errorf("failed to parse the assessment: %w", err)
	}
	return &assessment, nil
}
