package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopflow-ai/shopflow"
	"github.com/shopflow-ai/shopflow/internal/chat"
	"github.com/shopflow-ai/shopflow/internal/memory"
	"github.com/shopflow-ai/shopflow/internal/observability"
	"github.com/shopflow-ai/shopflow/internal/orchestration"
	"github.com/shopflow-ai/shopflow/pkg/config"
)

// Version is set via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "shopflow",
		Short:         "Multi-agent shopping assistant",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive shopping conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(configFile)
		},
	}
	root.AddCommand(chatCmd)

	return root
}

func runChat(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	observability.InitMetrics()
	if err := observability.InitTracingFromEnv(); err != nil {
		log.Printf("Warning: failed to initialize tracing: %v", err)
	}

	var obsServer *observability.Server
	if cfg.Observability.MetricsPort > 0 {
		obsServer = observability.NewServer(cfg.Observability.MetricsPort)
		go func() {
			if err := obsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Warning: observability server: %v", err)
			}
		}()
	}

	client, err := shopflow.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	store := memory.NewStore()
	orc, err := shopflow.BuildOrchestrator(cfg, client, store,
		orchestration.WithReporter(func(line string) {
			fmt.Println(line)
		}),
	)
	if err != nil {
		return err
	}

	reader := chat.NewLinerReader()
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopErr := chat.NewLoop(orc, reader, os.Stdout).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if obsServer != nil {
		if err := obsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: observability server shutdown: %v", err)
		}
	}
	if err := observability.ShutdownTracing(shutdownCtx); err != nil {
		log.Printf("Warning: tracing shutdown: %v", err)
	}

	return loopErr
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}
