// Package app はサブコマンドの解析、依存関係のワイヤリング、サーバーのライフサイクルを扱う。
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/ledgersite/internal/config"
	"github.com/hitoshi/ledgersite/internal/content"
	"github.com/hitoshi/ledgersite/internal/database"
	"github.com/hitoshi/ledgersite/internal/feed"
	"github.com/hitoshi/ledgersite/internal/handler"
	"github.com/hitoshi/ledgersite/internal/logger"
	"github.com/hitoshi/ledgersite/internal/metrics"
	"github.com/hitoshi/ledgersite/internal/middleware"
	"github.com/hitoshi/ledgersite/internal/security"
	"github.com/hitoshi/ledgersite/internal/store"
	"github.com/hitoshi/ledgersite/internal/submission"
)

// stdout はslugsコマンドの出力先。
var stdout io.Writer = os.Stdout

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSlugs:
		return runSlugs(context.Background(), cfg, stdout)
	default:
		return runServe(cfg)
	}
}

// openBackend はSTORE_DRIVERに応じたBackendを生成する。
// 返すcloseは呼び出し元が終了時に呼ぶ。
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.Ping(ctx, db, cfg.StoreTimeout); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		return store.NewSQLBackend(db), db.Close, nil
	default:
		return store.NewRESTBackend(cfg.StoreURL, cfg.StoreTimeout), func() error { return nil }, nil
	}
}

// newProvider はConfigからProviderを組み立てる。
func newProvider(cfg *config.Config, backend store.Backend) *store.Provider {
	return store.NewProvider(backend, store.ProviderConfig{
		AnonKey:       cfg.StoreAnonKey,
		ServiceKey:    cfg.StoreServiceKey,
		SessionCookie: cfg.StoreSessionCookie,
		SessionMaxAge: cfg.SessionMaxAge,
		CookieSecure:  cfg.CookieSecure,
		CookieDomain:  cfg.CookieDomain,
	})
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. 設定値に由来する検証は接続前に済ませる
	policy, err := content.ParseFetchPolicy(cfg.UpdatesFetchPolicy)
	if err != nil {
		return err
	}

	guard := security.NewOutboundGuard()
	if cfg.SubmissionWebhookURL != "" {
		if err := guard.ValidateURL(cfg.SubmissionWebhookURL); err != nil {
			return fmt.Errorf("SUBMISSION_WEBHOOK_URL is not allowed: %w", err)
		}
	} else {
		slog.Warn("SUBMISSION_WEBHOOK_URL is not set; service requests will fail")
	}

	// 2. コンテンツストア
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	provider := newProvider(cfg, backend)
	pingCtx, cancelPing := context.WithTimeout(ctx, cfg.StoreTimeout)
	if err := provider.Ping(pingCtx); err != nil {
		// 疎通できなくても起動は続ける。一覧は空配列で応答する
		slog.Warn("content store is not reachable", slog.String("error", err.Error()))
	}
	cancelPing()

	// 3. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 4. 問い合わせ転送
	forwarder := submission.NewForwarder(
		guard.NewSafeClient(cfg.SubmissionTimeout),
		cfg.SubmissionWebhookURL,
		slog.Default(),
		collector,
	)

	rateLimiter := middleware.NewRateLimiter(middleware.SubmissionRateLimiterConfig(cfg.RateLimitSubmission))
	defer rateLimiter.Stop()

	// 5. ルーター
	router := handler.NewRouter(&handler.RouterDeps{
		Provider:    provider,
		FetchPolicy: policy,
		Sanitizer:   security.NewContentSanitizer(),
		RSS: feed.NewRSSGenerator(cfg.BaseURL, feed.Channel{
			Title:       "新着情報",
			Description: "お知らせとインサイトの新着情報",
			Language:    "ja",
		}),
		Submitter:   forwarder,
		RateLimiter: rateLimiter,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:            slog.Default(),
		Metrics:           collector,
		Gatherer:          reg,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("updates_fetch_policy", policy.String()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// slugsOutput はslugsコマンドの出力形式。
type slugsOutput struct {
	News      []string `json:"news"`
	Insights  []string `json:"insights"`
	Templates []string `json:"templates"`
	Solutions []string `json:"solutions"`
}

// runSlugs は静的コンテキストで公開済みスラッグを列挙し、JSONで出力する。
// ビルド時のパス生成で使うため、いずれかの取得に失敗した場合はエラーを返す。
func runSlugs(ctx context.Context, cfg *config.Config, out io.Writer) error {
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	client := newProvider(cfg, backend).Client(store.StaticContext())
	reader := content.NewReader(client, slog.Default(), metrics.Nop{}, content.PerSourceLimit)

	news := reader.NewsSlugsResult(ctx)
	insights := reader.InsightSlugsResult(ctx)
	templates := reader.TemplateSlugsResult(ctx)
	solutions := reader.SolutionSlugsResult(ctx)

	if err := errors.Join(news.Reason, insights.Reason, templates.Reason, solutions.Reason); err != nil {
		return fmt.Errorf("failed to list slugs: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(slugsOutput{
		News:      news.Data,
		Insights:  insights.Data,
		Templates: templates.Data,
		Solutions: solutions.Data,
	})
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("migration failed: DATABASE_URL is not set")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
