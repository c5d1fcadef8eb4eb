package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/segfal/Lockdin/configs"
	"github.com/segfal/Lockdin/internal/feed"
	"github.com/segfal/Lockdin/internal/idem"
	"github.com/segfal/Lockdin/internal/kafka"
	"github.com/segfal/Lockdin/internal/logs"
	"github.com/segfal/Lockdin/internal/observability"
	"github.com/segfal/Lockdin/internal/ratelimit"
	"github.com/segfal/Lockdin/internal/shared/httpx"
	"github.com/segfal/Lockdin/internal/shared/redisx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed page and the feed JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configs.LoadConfig()
			log := logs.New(os.Stdout, cfg.LogLevel)
			slog.SetDefault(log)
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *configs.Config, log *slog.Logger) error {
	if cfg.OTELEnabled {
		shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
			Endpoint:    cfg.OTELEndpoint,
			ServiceName: cfg.OTELServiceName,
			Env:         cfg.Env,
			SampleRatio: cfg.OTELSampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(c)
		}()
	}

	var (
		limiter ratelimit.Limiter = ratelimit.NewLocal(cfg.LikeRateWindow)
		store                     = idem.NewMemory()
	)
	if cfg.RedisHost != "" {
		rdb, err := redisx.Open(ctx, cfg.RedisHost, cfg.RedisPort)
		if err != nil {
			return err
		}
		defer func(rdb *redis.Client) { _ = rdb.Close() }(rdb)
		limiter = ratelimit.NewRedis(rdb)
		store = idem.NewRedis(rdb)
	}

	opts := []feed.Option{
		feed.WithLogger(log),
		feed.WithMetrics(feed.NewMetrics(prometheus.DefaultRegisterer)),
		feed.WithLatency(cfg.SimulatedLatency),
	}
	if cfg.KafkaBrokers != "" {
		w, err := kafka.NewWriter(kafka.WriterConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaEventsTopic,
			RequiredAcks: cfg.KafkaRequiredAcks,
		})
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		opts = append(opts, feed.WithPublisher(kafkaPublisher(w)))
	}

	var src feed.Source
	if cfg.FeedAPIURL != "" {
		opts = append(opts, feed.WithClient(feed.NewHTTPClient(cfg.FeedAPIURL, cfg.FeedAPITimeout)))
	} else {
		seed, err := loadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		src = seed
	}

	state := feed.NewState(src, opts...)
	if err := state.Initialize(ctx); err != nil {
		// the failure stays visible through the feed's error field
		log.Error("initial feed load failed", "error", err)
	}

	h := feed.NewHandler(state,
		feed.WithIdempotency(store, cfg.IdempotencyTTL),
		feed.WithHandlerLogger(log),
	)
	mux := newMux(h, limiter, cfg.LikeRateLimit, cfg.LikeRateWindow)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.AppPort,
		Handler:           otelhttp.NewHandler(mux, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("lockdin feed listening", "addr", cfg.AppPort, "posts", len(state.Snapshot().FeedPosts))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})
	return g.Wait()
}

func newMux(h *feed.Handler, limiter ratelimit.Limiter, likeLimit int64, likeWindow time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("GET /{$}", httpx.Wrap(h.Page))
	mux.Handle("GET /feed", httpx.Wrap(h.GetFeed))
	mux.Handle("GET /feed/posts", httpx.Wrap(h.ListPosts))
	mux.Handle("POST /feed/posts", httpx.Wrap(h.CreatePost))

	likeLimited := ratelimit.LimitHTTP(limiter, likeLimit, likeWindow, func(r *http.Request) string {
		return "like:" + httpx.ClientIP(r)
	}, httpx.Wrap(h.LikePost))
	mux.Handle("POST /feed/posts/{post_id}/like", likeLimited)
	mux.Handle("POST /feed/posts/{post_id}/comments", httpx.Wrap(h.CommentOnPost))
	return mux
}

func kafkaPublisher(w kafka.Writer) feed.Publisher {
	return feed.PublisherFunc(func(ctx context.Context, ev feed.Event) error {
		return w.WriteJSON(ctx, strconv.FormatInt(ev.PostID, 10), ev)
	})
}

func loadSeed(path string) (feed.StaticSource, error) {
	if path != "" {
		return feed.LoadSeedFile(path)
	}
	return feed.DefaultSeed()
}
