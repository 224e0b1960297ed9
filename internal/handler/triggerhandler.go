package handler

import (
	"net/http"

	"github.com/poorehouse/twotruths/internal/httputil"
	"github.com/poorehouse/twotruths/internal/svc"
	"github.com/poorehouse/twotruths/internal/types"
)

// Request the next round. A request that arrives while one is already
// pending is acknowledged with a 202 rather than queuing a second
// generation.
func TriggerRoundHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svcCtx.Scheduler.TryRequest() {
			httputil.OkJSON(w, &types.TriggerResponse{Message: "New round generation triggered"})
			return
		}
		httputil.WriteJSON(w, http.StatusAccepted, &types.TriggerResponse{Message: "New round generation already requested"})
	}
}
