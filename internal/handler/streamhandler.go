package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/poorehouse/twotruths/internal/httputil"
	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/svc"
	"github.com/poorehouse/twotruths/internal/types"
)

// Server-sent events feed of game rounds. Connecting triggers a round
// automatically so a fresh viewer sees content without clicking.
func GameStreamHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			httputil.InternalError(w, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		// Disable proxy buffering so events reach the browser immediately.
		w.Header().Set("X-Accel-Buffering", "no")

		id, events := svcCtx.Hub.Subscribe()
		defer svcCtx.Hub.Unsubscribe(id)
		logging.Infof("stream: client %d connected", id)

		svcCtx.Scheduler.TryRequest()

		connected, _ := json.Marshal(types.Event{Type: "connected", Message: "Connection established"})
		fmt.Fprintf(w, "data: %s\n\n", connected)
		flusher.Flush()

		interval := svcCtx.Config.Stream.KeepAlive()
		keepAlive := time.NewTimer(interval)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				logging.Infof("stream: client %d disconnected", id)
				return
			case frame, open := <-events:
				if !open {
					return
				}
				fmt.Fprintf(w, "data: %s\n\n", frame)
				flusher.Flush()
				if !keepAlive.Stop() {
					select {
					case <-keepAlive.C:
					default:
					}
				}
				keepAlive.Reset(interval)
			case <-keepAlive.C:
				// Comment frame holds idle connections open through
				// proxies without waking client handlers.
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
				keepAlive.Reset(interval)
			}
		}
	}
}
