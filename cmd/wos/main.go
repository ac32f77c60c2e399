package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/whyhi/wos/internal/approval"
	"github.com/whyhi/wos/internal/brain"
	"github.com/whyhi/wos/internal/canon"
	"github.com/whyhi/wos/internal/config"
	"github.com/whyhi/wos/internal/embedder"
	"github.com/whyhi/wos/internal/handlers"
	"github.com/whyhi/wos/internal/llm"
	"github.com/whyhi/wos/internal/logger"
	"github.com/whyhi/wos/internal/notify"
	"github.com/whyhi/wos/internal/publisher"
	"github.com/whyhi/wos/internal/registry"
	"github.com/whyhi/wos/internal/sched"
	"github.com/whyhi/wos/internal/system"
	"github.com/whyhi/wos/internal/workflow"
	"github.com/whyhi/wos/internal/workspace"
)

func init() {
	godotenv.Load()
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wos <command>

commands:
  run <intent> [json-input]   dispatch a single intent request
  status                      print host and canon status
  reindex                     rebuild missing artifact embeddings
  serve                       run the HTTP API and scheduler`)
	os.Exit(2)
}

type services struct {
	cfg      *config.Config
	canon    *canon.Store
	intents  *registry.Store
	brain    *brain.Brain
	executor workflow.Executor
}

func buildServices() (*services, func()) {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	store, err := canon.Open(cfg.CanonPath)
	if err != nil {
		logger.Fatal("failed to open canon", "error", err)
	}

	emb, err := embedder.New(embedder.Config{
		Provider: cfg.Embedder.Provider,
		APIKey:   cfg.Embedder.APIKey,
		BaseURL:  cfg.Embedder.BaseURL,
		Model:    cfg.Embedder.Model,
	})
	if err != nil {
		logger.Fatal("failed to create embedder", "error", err)
	}
	if emb != nil {
		model := cfg.Embedder.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		store.SetEmbedder(emb, model)
	}

	intents, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		logger.Fatal("failed to open registry", "error", err)
	}

	if cfg.IntentsFile != "" {
		if err := intents.Bootstrap(context.Background(), cfg.IntentsFile); err != nil {
			logger.Fatal("failed to bootstrap intents", "error", err)
		}
	}

	var gate *approval.Gate
	if cfg.Workspace.Token != "" {
		medium, err := workspace.NewClient(workspace.Config{
			Token:      cfg.Workspace.Token,
			DatabaseID: cfg.Workspace.DatabaseID,
			BaseURL:    cfg.Workspace.BaseURL,
		})
		if err != nil {
			logger.Fatal("failed to create approval medium", "error", err)
		}

		notifier, err := notify.New(notify.Config{
			Channel:        cfg.Notify.Channel,
			Token:          cfg.Notify.Token,
			TelegramChatID: cfg.Notify.TelegramChatID,
			DiscordChannel: cfg.Notify.DiscordChannel,
		})
		if err != nil {
			logger.Fatal("failed to create notifier", "error", err)
		}

		gate, err = approval.NewGate(medium, notifier)
		if err != nil {
			logger.Fatal("failed to create approval gate", "error", err)
		}
	} else {
		logger.Warn("no approval medium configured, approval-required intents will stay pending")
	}

	var executor workflow.Executor
	if cfg.Workflow.BaseURL != "" {
		executor = workflow.NewClient(cfg.Workflow.BaseURL, cfg.Workflow.APIKey)
	}

	pubCfg := publisher.Config{BaseDir: cfg.ArtifactsDir}
	if cfg.Storage.Enabled {
		pubCfg.Endpoint = cfg.Storage.Endpoint
		pubCfg.AccessKey = cfg.Storage.AccessKey
		pubCfg.SecretKey = cfg.Storage.SecretKey
		pubCfg.Bucket = cfg.Storage.Bucket
		pubCfg.UseSSL = cfg.Storage.UseSSL
	}

	pub, err := publisher.New(store, pubCfg)
	if err != nil {
		logger.Fatal("failed to create publisher", "error", err)
	}
	if err := pub.Init(context.Background()); err != nil {
		logger.Warn("artifact storage init failed", "error", err)
	}

	model, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}

	factory := handlers.Factory(handlers.Deps{
		Canon:     store,
		Gate:      gate,
		Workflows: executor,
		Publisher: pub,
		LLM:       model,
	})

	var checker brain.ApprovalChecker
	if gate != nil {
		checker = gate
	}

	b := brain.New(intents, checker, factory)

	cleanup := func() {
		store.Close()
		intents.Close()
	}

	return &services{
		cfg:      cfg,
		canon:    store,
		intents:  intents,
		brain:    b,
		executor: executor,
	}, cleanup
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	svc, cleanup := buildServices()
	defer cleanup()

	switch os.Args[1] {
	case "run":
		cmdRun(svc, os.Args[2:])
	case "status":
		cmdStatus(svc)
	case "reindex":
		cmdReindex(svc)
	case "serve":
		cmdServe(svc)
	default:
		usage()
	}
}

func cmdRun(svc *services, args []string) {
	if len(args) < 1 {
		usage()
	}

	input := map[string]any{}
	if len(args) > 1 {
		if err := json.Unmarshal([]byte(args[1]), &input); err != nil {
			logger.Fatal("invalid json input", "error", err)
		}
	}

	resp := svc.brain.ProcessRequest(context.Background(), brain.Request{
		Intent: args[0],
		Input:  input,
	})

	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))

	if !resp.OK {
		os.Exit(1)
	}
}

func cmdStatus(svc *services) {
	status := system.Snapshot(context.Background(), svc.canon, svc.cfg.CanonPath, svc.cfg.RegistryPath)

	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
}

func cmdReindex(svc *services) {
	if !svc.canon.HasEmbedder() {
		logger.Fatal("no embedder configured")
	}

	stats := svc.canon.ReindexAll(context.Background())
	fmt.Printf("reindexed %d artifacts: %d ok, %d failed\n", stats.Total, stats.Success, stats.Failed)
}

func cmdServe(svc *services) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := sched.New(svc.brain, svc.intents)
	go scheduler.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /status", handleStatus(svc))
	mux.HandleFunc("GET /intents", handleIntents(svc))
	mux.HandleFunc("POST /process", handleProcess(svc))

	server := &http.Server{
		Addr:         ":" + svc.cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // outreach executions block on human approval
	}

	go func() {
		logger.Info("wos serving", "port", svc.cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleStatus(svc *services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := system.Snapshot(r.Context(), svc.canon, svc.cfg.CanonPath, svc.cfg.RegistryPath)
		writeJSON(w, http.StatusOK, status)
	}
}

func handleIntents(svc *services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intents, err := svc.intents.ListIntents(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, intents)
	}
}

func handleProcess(svc *services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req brain.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		resp := svc.brain.ProcessRequest(r.Context(), req)
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
