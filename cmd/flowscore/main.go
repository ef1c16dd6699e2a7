package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/onevent/flowscore/internal/catalog"
	"github.com/onevent/flowscore/internal/flow"
	"github.com/onevent/flowscore/internal/handler"
	appI18n "github.com/onevent/flowscore/internal/i18n"
	"github.com/onevent/flowscore/internal/model"
	"github.com/onevent/flowscore/internal/store"
	"github.com/onevent/flowscore/internal/webhook"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowscore",
		Short: "Business process self-assessment service",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `flowscore --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "flowscore.db", "SQLite database path")
	f.StringP("questions", "q", "", "Path to a questions JSON file (empty = embedded catalog)")
	f.StringP("lang", "l", "ro", "Default language for new sessions (ro, en)")
	f.String("webhook-url", "", "Endpoint that receives finished results")
	f.String("validate-url", "", "Endpoint that validates access tokens (empty = format check only)")
	f.Bool("fail-open", true, "Accept well-formed tokens when the validation endpoint is unreachable")
	f.Duration("session-ttl", flow.DefaultTTL, "How long idle assessment sessions are kept")
	f.Bool("secure-cookies", true, "Set Secure flag on admin session cookies")
	f.String("admin-password", "", "Initial admin password (or set FLOWSCORE_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored assessment results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "flowscore.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("FLOWSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("flowscore")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/flowscore")
	v.AddConfigPath("/etc/flowscore")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default admin user if no users exist.
	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if n, err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("auth session cleanup failed", "error", err)
	} else if n > 0 {
		slog.Info("removed expired auth sessions", "count", n)
	}

	cat, err := loadCatalog(v.GetString("questions"))
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	lang := v.GetString("lang")
	translator, err := appI18n.New(lang)
	if err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := model.ServeConfig{
		Lang:               lang,
		WebhookURL:         v.GetString("webhook-url"),
		ValidateURL:        v.GetString("validate-url"),
		FailOpenValidation: v.GetBool("fail-open"),
		SecureCookies:      v.GetBool("secure-cookies"),
	}

	sessions := flow.NewManager(cat, v.GetDuration("session-ttl"))
	wh := webhook.New(cfg.WebhookURL, cfg.ValidateURL, cfg.FailOpenValidation)
	h := handler.New(db, cat, sessions, wh, translator, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"questions", cat.Len(),
		"lang", lang,
		"webhook_url", cfg.WebhookURL,
		"validate_url", cfg.ValidateURL,
		"fail_open", cfg.FailOpenValidation,
		"session_ttl", v.GetDuration("session-ttl"),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAllResults()
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded questions file", "path", path, "count", cat.Len())
	return cat, nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or FLOWSCORE_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	return err
}
