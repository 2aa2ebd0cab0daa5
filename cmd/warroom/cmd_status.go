// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
)

func runStatusCommand(cmd *cobra.Command, args []string) {
	resp, err := httpClient.Get(serverURL + "/health")
	if err != nil {
		log.Fatalf("Service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Service unhealthy: %s", resp.Status)
	}

	var health datatypes.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		log.Fatalf("Failed to parse the health response: %v", err)
	}
	fmt.Printf("%s service: %s (reasoning backend: %s)\n",
		health.Service, health.Status, health.Backend)
}
