// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/intelfuse/warroom/services/analysis/datatypes"
)

// watchFrame mirrors the frames the analysis service writes on a watch
// stream.
type watchFrame struct {
	Status     string                         `json:"status"`
	Conflict   string                         `json:"conflict"`
	Assessment *datatypes.CompositeAssessment `json:"assessment,omitempty"`
	Message    string                         `json:"message,omitempty"`
}

func runWatchCommand(cmd *cobra.Command, args []string) {
	conflict := strings.Join(args, " ")

	wsURL, err := watchURL(serverURL, conflict)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("Error connecting to the analysis service: %v", err)
	}
	defer ws.Close()

	fmt.Printf("Watching conflict: %s (Ctrl-C to stop)\n", conflict)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		fmt.Println("\nStopping watch.")
		ws.Close()
		os.Exit(0)
	}()

	for {
		var frame watchFrame
		if err := ws.ReadJSON(&frame); err != nil {
			log.Fatalf("Stream closed: %v", err)
		}

		cliLog.Debug("Watch frame received", "status", frame.Status, "conflict", frame.Conflict)
		switch frame.Status {
		case "analyzing":
			fmt.Println(styleMuted.Render("collecting signals..."))
		case "ok":
			if frame.Assessment != nil {
				fmt.Println(renderAssessment(frame.Assessment))
			}
		case "error":
			log.Fatalf("Assessment failed: %s", frame.Message)
		}
	}
}

// watchURL converts the service base URL into the websocket endpoint for
// one conflict.
func watchURL(base, conflict string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/v1/analyze/ws/" + url.PathEscape(conflict)
	return u.String(), nil
}
