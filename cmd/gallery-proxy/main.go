// Command gallery-proxy serves cached gallery API data over HTTP and
// exposes the cache admin operations.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mvollmer/gallery-api-cache/internal/config"
	"github.com/mvollmer/gallery-api-cache/pkg/cache"
	"github.com/mvollmer/gallery-api-cache/pkg/client"
	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
	"github.com/mvollmer/gallery-api-cache/pkg/logging"
	"github.com/mvollmer/gallery-api-cache/pkg/resolver"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.NewLoader("GALLERY", *configFile).Load()
	if err != nil {
		fallback := logging.Setup(logging.DefaultConfig())
		fallback.Fatal().Err(err).Msg("Configuration failed")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
		Output: os.Stderr,
	})

	// Durable tier
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	durable := cache.NewRedisStore(redisClient)
	if err := durable.Ping(context.Background()); err != nil {
		logger.Fatal().Err(err).Str("address", cfg.Redis.Address).Msg("Redis unreachable")
	}
	logger.Info().Str("address", cfg.Redis.Address).Msg("Connected to Redis")

	// Volatile tier (optional)
	var volatile cache.Store
	if cfg.Cache.VolatileEnabled {
		volatile = cache.NewMemoryStore()
	}

	store := cache.NewTieredStore(volatile, durable)
	manager := cache.NewManager(store, cache.Config{
		TTLOverrides: cfg.TTLOverrides(),
		Notifier:     eventLogger(logging.NewLogger("cache")),
	})

	apiClient, err := client.New(client.Config{
		BaseURL:    cfg.Upstream.BaseURL,
		APIToken:   cfg.Upstream.APIToken,
		PropertyID: cfg.Upstream.PropertyID,
		Timeout:    time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create gallery API client")
	}

	caseResolver := resolver.New(manager, apiClient, logging.NewLogger("resolver"))

	srv := &server{
		manager:  manager,
		client:   apiClient,
		resolver: caseResolver,
		logger:   logging.NewLogger("http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /gallery/cases", srv.listCases)
	mux.HandleFunc("GET /gallery/cases/{id}", srv.getCase)
	mux.HandleFunc("GET /gallery/sidebar", srv.sidebar)
	mux.HandleFunc("GET /gallery/carousel", srv.carousel)
	mux.HandleFunc("GET /admin/cache/stats", srv.cacheStats)
	mux.HandleFunc("POST /admin/cache/flush", srv.cacheFlush)
	mux.HandleFunc("POST /admin/cache/sweep", srv.cacheSweep)

	addr := cfg.Listen.Address + ":" + strconv.Itoa(cfg.Listen.Port)
	logger.Info().Str("addr", addr).Msg("Starting gallery proxy")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// eventLogger adapts cache events onto the structured logger.
func eventLogger(logger zerolog.Logger) cache.Notifier {
	return cache.NotifierFunc(func(e cache.Event) {
		logger.Debug().
			Str("op", string(e.Op)).
			Str("kind", string(e.Kind)).
			Str("key_hash", e.KeyHash).
			Str("outcome", string(e.Outcome)).
			Msg("Cache operation")
	})
}

type server struct {
	manager  *cache.Manager
	client   *client.Client
	resolver *resolver.Resolver
	logger   zerolog.Logger
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// queryFromRequest extracts the case listing filters.
func queryFromRequest(r *http.Request) gallery.Query {
	var q gallery.Query
	values := r.URL.Query()
	if raw := values.Get("procedure_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				q.ProcedureIDs = append(q.ProcedureIDs, id)
			}
		}
	}
	q.MemberID, _ = strconv.ParseInt(values.Get("member_id"), 10, 64)
	q.Page, _ = strconv.Atoi(values.Get("page"))
	return q
}

func (s *server) listCases(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	data, err := s.manager.GetOrPopulate(r.Context(), cache.KindCaseList, q.Params(),
		func(ctx context.Context) ([]byte, error) {
			return s.client.FetchCasesRaw(ctx, q)
		})
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	writeRawJSON(w, data)
}

func (s *server) getCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid case id", http.StatusBadRequest)
		return
	}

	// The active page filters, if any, form the known filter context.
	var contexts []gallery.Query
	if q := queryFromRequest(r); !q.IsUnfiltered() {
		contexts = append(contexts, q)
	}

	record, attempt, err := s.resolver.ResolveCase(r.Context(), id, contexts)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			// A legitimate absence, not an error page.
			http.Error(w, `{"error": "case not available"}`, http.StatusNotFound)
			return
		}
		s.upstreamError(w, err)
		return
	}

	s.logger.Debug().
		Int64("case_id", id).
		Str("strategy", attempt.Strategy).
		Msg("Served case")
	writeJSON(w, record)
}

func (s *server) sidebar(w http.ResponseWriter, r *http.Request) {
	propertyID, _ := strconv.ParseInt(r.URL.Query().Get("property_id"), 10, 64)
	params := map[string]string{}
	if propertyID > 0 {
		params["property_id"] = strconv.FormatInt(propertyID, 10)
	}
	data, err := s.manager.GetOrPopulate(r.Context(), cache.KindSidebar, params,
		func(ctx context.Context) ([]byte, error) {
			return s.client.FetchSidebar(ctx, propertyID)
		})
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	writeRawJSON(w, data)
}

func (s *server) carousel(w http.ResponseWriter, r *http.Request) {
	procedureID, _ := strconv.ParseInt(r.URL.Query().Get("procedure_id"), 10, 64)
	params := map[string]string{}
	if procedureID > 0 {
		params["procedure_id"] = strconv.FormatInt(procedureID, 10)
	}
	data, err := s.manager.GetOrPopulate(r.Context(), cache.KindCarousel, params,
		func(ctx context.Context) ([]byte, error) {
			return s.client.FetchCarousel(ctx, procedureID)
		})
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	writeRawJSON(w, data)
}

func (s *server) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, stats)
}

func (s *server) cacheFlush(w http.ResponseWriter, r *http.Request) {
	kindParam := r.URL.Query().Get("kind")

	if kindParam == "" {
		deleted, err := s.manager.FlushAll(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]int{"deleted": deleted})
		return
	}

	kind, err := cache.ParseKind(kindParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	deleted, err := s.manager.FlushKind(r.Context(), kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]int{"deleted": deleted})
}

func (s *server) cacheSweep(w http.ResponseWriter, r *http.Request) {
	result, err := s.manager.Sweep(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, result)
}

func (s *server) upstreamError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("Upstream request failed")
	http.Error(w, `{"error": "upstream unavailable"}`, http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Write(data)
}

func writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(data)
}
