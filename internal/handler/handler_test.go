package handler

import (
	"time"

	"github.com/poorehouse/twotruths/internal/config"
	"github.com/poorehouse/twotruths/internal/generator"
	"github.com/poorehouse/twotruths/internal/hub"
	"github.com/poorehouse/twotruths/internal/scheduler"
	"github.com/poorehouse/twotruths/internal/session"
	"github.com/poorehouse/twotruths/internal/store"
	"github.com/poorehouse/twotruths/internal/svc"
)

// newTestCtx wires a service context around the in-memory store with
// no model client. Handlers under test never reach the model.
func newTestCtx() *svc.ServiceContext {
	c := config.Default()
	c.Store.Backend = "memory"

	st := store.New(c.Store)
	h := hub.New()
	sess := session.NewManager()
	gen := generator.New(nil, st, c.Prompt, c.Store.PromptWindow)

	return &svc.ServiceContext{
		Config:    c,
		Store:     st,
		Hub:       h,
		Session:   sess,
		Generator: gen,
		Scheduler: scheduler.New(gen, h, sess, time.Millisecond),
	}
}
