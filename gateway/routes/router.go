package routes

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"vinechain/core"
	"vinechain/core/types"
	"vinechain/gateway/middleware"
	"vinechain/indexer"
	"vinechain/native/content"
	"vinechain/native/identity"
	"vinechain/native/issuance"
)

// Node is the subset of core.Node the gateway serves.
type Node interface {
	SubmitTransaction(ctx context.Context, tx *types.Transaction) (*core.Receipt, error)
	Root() common.Hash
	Height() uint64
	Nonce(addr [20]byte) (uint64, error)
	Balance(asset types.AssetID, addr [20]byte) (*core.Balance, error)
	Asset(id types.AssetID) (*issuance.Asset, bool, error)
	Supply(id types.AssetID) (*big.Int, error)
	Quote(id types.AssetID, amount *big.Int, side issuance.Side) (*big.Int, error)
	User(id uint64) (*identity.User, bool, error)
	ResolveUser(addr [20]byte) (*identity.User, bool, error)
	Content(id uint64) (*content.Content, bool, error)
	Rewards(addr [20]byte) (*content.RewardTotals, error)
}

// Archive serves historical events. It is optional.
type Archive interface {
	Events(ctx context.Context, q indexer.Query) ([]indexer.EventRecord, error)
}

const txRateLimitKey = "tx"

type Config struct {
	Node          Node
	Archive       Archive
	Stream        *core.EventStream
	Logger        *slog.Logger
	RateLimit     middleware.RateLimit
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
}

type server struct {
	node    Node
	archive Archive
	stream  *core.EventStream
	logger  *slog.Logger
	origins []string
}

// New builds the HTTP API.
func New(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{
		node:    cfg.Node,
		archive: cfg.Archive,
		stream:  cfg.Stream,
		logger:  logger,
		origins: originPatterns(cfg.CORS.AllowedOrigins),
	}
	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{txRateLimitKey: cfg.RateLimit}, logger)
	obs := cfg.Observability
	if obs == nil {
		obs = middleware.NewObservability(middleware.ObservabilityConfig{}, logger)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", obs.MetricsHandler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/status", s.handleStatus)
		v1.With(obs.Middleware("tx"), limiter.Middleware(txRateLimitKey)).Post("/tx", s.handleSubmit)

		v1.Group(func(q chi.Router) {
			q.Use(obs.Middleware("query"))
			q.Get("/assets/{id}", s.handleAsset)
			q.Get("/assets/{id}/quote", s.handleQuote)
			q.Get("/content/{id}", s.handleContent)
			q.Get("/users/{id}", s.handleUser)
			q.Get("/accounts/{addr}", s.handleAccount)
			q.Get("/accounts/{addr}/nonce", s.handleNonce)
			q.Get("/accounts/{addr}/balances/{asset}", s.handleBalance)
			q.Get("/accounts/{addr}/rewards", s.handleRewards)
			q.Get("/events", s.handleEvents)
		})
		v1.Get("/events/stream", s.handleStream)
	})

	return otelhttp.NewHandler(r, "vine-gateway")
}
