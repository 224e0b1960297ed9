package svc

import (
	"os"
	"strings"

	"github.com/poorehouse/twotruths/internal/config"
	"github.com/poorehouse/twotruths/internal/generator"
	"github.com/poorehouse/twotruths/internal/hub"
	"github.com/poorehouse/twotruths/internal/keyring"
	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/scheduler"
	"github.com/poorehouse/twotruths/internal/session"
	"github.com/poorehouse/twotruths/internal/store"
)

// ServiceContext wires the long-lived components behind the HTTP
// handlers.
type ServiceContext struct {
	Config    *config.Config
	Store     *store.Store
	Hub       *hub.Hub
	Session   *session.Manager
	Generator *generator.Generator
	Scheduler *scheduler.Scheduler
}

func NewServiceContext(c *config.Config) *ServiceContext {
	st := store.New(c.Store)
	h := hub.New()
	sess := session.NewManager()
	logging.Infof("Session %s started", sess.ID())

	gen := generator.New(buildModel(c), st, c.Prompt, c.Store.PromptWindow)
	sched := scheduler.New(gen, h, sess, c.Stream.PollInterval())

	return &ServiceContext{
		Config:    c,
		Store:     st,
		Hub:       h,
		Session:   sess,
		Generator: gen,
		Scheduler: sched,
	}
}

func (svc *ServiceContext) Close() {
	if err := svc.Store.Close(); err != nil {
		logging.Errorf("Store close failed: %v", err)
	}
	logging.Info("Service context closed")
}

// buildModel resolves credentials and constructs the configured model
// client. A missing key or unknown provider degrades to nil: the server
// still runs, and generation requests report the configuration problem
// to players instead of crashing at startup.
func buildModel(c *config.Config) generator.Model {
	provider := strings.ToLower(c.Model.Provider)
	key := resolveAPIKey(provider, c.Model.APIKey)
	if key == "" && providerNeedsKey(provider) {
		logging.Warnf("No API key found for %s, round generation disabled", provider)
		return nil
	}

	model, err := generator.NewModel(provider, generator.Options{
		Model:       c.Model.Model,
		MaxTokens:   c.Model.MaxTokens,
		Temperature: c.Model.Temperature,
		APIKey:      key,
		BaseURL:     c.Model.BaseURL,
	})
	if err != nil {
		logging.Errorf("Model client init failed: %v", err)
		return nil
	}
	logging.Infof("Model client initialized: %s", model.Name())
	return model
}

// resolveAPIKey checks the provider's environment variable, then the
// config file, then the OS keyring.
func resolveAPIKey(provider, configured string) string {
	if env := keyEnvVar(provider); env != "" {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	if configured != "" {
		return configured
	}
	if keyring.Available() {
		if v, err := keyring.APIKey(provider); err == nil && v != "" {
			logging.Infof("Using %s API key from OS keyring", provider)
			return v
		}
	}
	return ""
}

func keyEnvVar(provider string) string {
	switch provider {
	case "", "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini", "google":
		return "GEMINI_API_KEY"
	}
	return ""
}

// providerNeedsKey reports whether the provider rejects unauthenticated
// calls. Ollama is local and never needs one.
func providerNeedsKey(provider string) bool {
	return provider != "ollama"
}
