// Copyright (C) 2025 Intelfuse (ops@intelfuse.io)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/intelfuse/warroom/pkg/validation"
	"github.com/intelfuse/warroom/services/analysis/datatypes"
	"github.com/intelfuse/warroom/services/analysis/observability"
	"github.com/intelfuse/warroom/services/analysis/pipeline"
)

const (
	// WatchInterval is the delivery cadence for a watch stream.
	WatchInterval = 60 * time.Second

	keepAliveInterval = 20 * time.Second
	writeDeadline     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// watchMessage is one frame on a watch stream. Status is "analyzing" at the
// start of every run, "ok" with the assessment attached on completion, and
// "error" with a message on failure.
type watchMessage struct {
	Status     string                         `json:"status"`
	Conflict   string                         `json:"conflict"`
	Assessment *datatypes.CompositeAssessment `json:"assessment,omitempty"`
	Message    string                         `json:"message,omitempty"`
}

// HandleWatch streams assessments for one conflict over a websocket. The
// first run starts immediately; subsequent runs fire on a fixed cadence.
// Each run executes off the delivery loop so a slow or dead upstream never
// delays the next tick.
func HandleWatch(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		conflict, err := validation.SanitizeConflict(c.Param("conflict"))
		if err != nil {
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("Watch client connected", "conflict", conflict)

		m := observability.DefaultMetrics
		if m != nil {
			m.WatchStarted()
			defer m.WatchEnded()
		}

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		var writeMu sync.Mutex
		send := func(v any) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			return ws.WriteJSON(v)
		}

		// Read pump. The client sends nothing meaningful; reads exist to
		// notice the disconnect.
		go func() {
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					slog.Info("Watch client disconnected", "conflict", conflict, "error", err.Error())
					if m != nil {
						m.RecordClientDisconnect()
					}
					cancel()
					return
				}
			}
		}()

		var inFlight atomic.Bool
		runOnce := func() {
			if !inFlight.CompareAndSwap(false, true) {
				slog.Warn("Previous watch run still in flight, skipping tick", "conflict", conflict)
				return
			}
			defer inFlight.Store(false)

			if err := send(watchMessage{Status: "analyzing", Conflict: conflict}); err != nil {
				cancel()
				return
			}
			assessment, err := p.Run(ctx, conflict, observability.TriggerWatch)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				_ = send(watchMessage{Status: "error", Conflict: conflict, Message: err.Error()})
				cancel()
				return
			}
			if err := send(watchMessage{Status: "ok", Conflict: conflict, Assessment: assessment}); err != nil {
				cancel()
			}
		}

		go runOnce()

		ticker := time.NewTicker(WatchInterval)
		defer ticker.Stop()
		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				go runOnce()
			case <-keepAlive.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
					cancel()
					return
				}
				if m != nil {
					m.RecordKeepAlive()
				}
			}
		}
	}
}
