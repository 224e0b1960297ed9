package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/poorehouse/twotruths/internal/httputil"
	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/svc"
	"github.com/poorehouse/twotruths/internal/types"
)

// Session statistics, optionally with full round, prompt, and response
// detail. The easter_eggs flag narrows every detail section to rounds
// whose prompt asked for the easter egg.
func GetSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SessionInfoRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		ctx := r.Context()
		sessionID := svcCtx.Session.ID()
		history := svcCtx.Store.History(ctx, sessionID)

		resp := &types.SessionInfoResponse{
			SessionID:             sessionID,
			RoundCount:            history.RoundCount,
			RoundsInHistory:       len(history.Rounds),
			SessionStartedAt:      svcCtx.Session.StartedAt().Format(time.RFC3339),
			UsingPersistedBackend: svcCtx.Store.Persistent(),
		}

		var eggRounds map[int]bool
		if req.EasterEggs {
			eggRounds = easterEggRounds(svcCtx.Store.Prompts(ctx, sessionID))
		}

		if req.Detail {
			if req.EasterEggs {
				rounds := make([]types.Round, 0, len(history.Rounds))
				for i, round := range history.Rounds {
					// Rounds are newest first, so index i holds round
					// number RoundCount-i.
					if eggRounds[history.RoundCount-i] {
						rounds = append(rounds, round)
					}
				}
				resp.Rounds = rounds
			} else {
				resp.Rounds = history.Rounds
			}
		}

		if req.Prompts {
			prompts := svcCtx.Store.Prompts(ctx, sessionID)
			if req.EasterEggs {
				kept := make([]types.PromptLog, 0, len(prompts))
				for _, p := range prompts {
					if p.IsEasterEggSet {
						kept = append(kept, p)
					}
				}
				prompts = kept
			}
			resp.Prompts = prompts
		}

		if req.Responses {
			responses := svcCtx.Store.Responses(ctx, sessionID)
			if req.EasterEggs {
				kept := make([]types.ResponseLog, 0, len(responses))
				for _, rl := range responses {
					if eggRounds[rl.RoundNumber] {
						kept = append(kept, rl)
					}
				}
				responses = kept
			}
			resp.Responses = responses
		}

		httputil.OkJSON(w, resp)
	}
}

// Session management: reset the history or start a fresh session.
func ManageSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SessionActionRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		switch req.Action {
		case "reset":
			cleared := svcCtx.Store.Reset(r.Context(), svcCtx.Session.ID())
			logging.Infof("session: reset, cleared %d rounds", cleared)
			httputil.OkJSON(w, &types.SessionActionResponse{
				Message: fmt.Sprintf("Session reset. Cleared %d rounds.", cleared),
			})
		case "new":
			id := svcCtx.Session.New()
			logging.Infof("session: new session %s", id)
			httputil.OkJSON(w, &types.SessionActionResponse{
				Message:   "New session created",
				SessionID: id,
			})
		default:
			httputil.WriteJSON(w, http.StatusBadRequest, &types.InvalidActionResponse{
				Error: "Invalid action. Use 'reset' to clear session history or 'new' to create a new session.",
			})
		}
	}
}

// easterEggRounds collects the round numbers whose prompts asked for
// the easter egg.
func easterEggRounds(prompts []types.PromptLog) map[int]bool {
	rounds := make(map[int]bool)
	for _, p := range prompts {
		if p.IsEasterEggSet {
			rounds[p.RoundNumber] = true
		}
	}
	return rounds
}
