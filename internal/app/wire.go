package app

import (
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"offrecord/internal/conversation"
	"offrecord/internal/crypto"
	"offrecord/internal/domain"
	"offrecord/internal/metrics"
	"offrecord/internal/protocol/ake"
	"offrecord/internal/relay"
	identitysvc "offrecord/internal/services/identity"
	messagesvc "offrecord/internal/services/message"
	"offrecord/internal/store"
	"offrecord/internal/util/ratelimit"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config   Config
	Log      zerolog.Logger
	Store    *store.IdentityFileStore
	Identity *identitysvc.Service
	Relay    *relay.HTTPClient
	Registry *conversation.Registry
	Metrics  *prometheus.Registry
	dispatch *metrics.Dispatch
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, logger zerolog.Logger) (*Wire, error) {
	identityStore := store.NewIdentityFileStore(cfg.Home, store.DefaultScryptParams)

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	rc := relay.NewHTTP(cfg.RelayURL)
	rc.HTTP = httpClient

	reg := prometheus.NewRegistry()
	return &Wire{
		Config:   cfg,
		Log:      logger,
		Store:    identityStore,
		Identity: identitysvc.New(identityStore),
		Relay:    rc,
		Registry: conversation.NewRegistry(),
		Metrics:  reg,
		dispatch: metrics.NewDispatch(reg),
	}, nil
}

// Messages builds a dispatcher that unlocks identities with passphrase and
// prints notices to out.
func (w *Wire) Messages(passphrase string, out io.Writer) *messagesvc.Service {
	keys := identitysvc.NewKeyring(w.Identity, passphrase)
	return w.Dispatcher(NewHostListener(w.Config, keys, w.Relay, out, w.Log))
}

// Dispatcher builds a dispatcher over the shared registry for listener.
func (w *Wire) Dispatcher(listener domain.Listener) *messagesvc.Service {
	limiter := ratelimit.New[domain.ConversationKey](w.Config.ErrorQueryRPS, w.Config.ErrorQueryBurst, 10*time.Minute)
	return messagesvc.New(
		w.Registry,
		listener,
		ake.NewMachine(crypto.NewProvider()),
		w.Log,
		w.dispatch,
		limiter,
	)
}
