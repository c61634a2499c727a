package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"ragkb/internal/chunker"
	"ragkb/internal/config"
	"ragkb/internal/domain"
	"ragkb/internal/embedding"
	"ragkb/internal/llm"
	"ragkb/internal/loader"
	"ragkb/internal/server"
	"ragkb/internal/service"
	"ragkb/internal/store"
	"ragkb/internal/tui"
	"ragkb/internal/vectorindex"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	configFlag := &cli.StringFlag{
		Name:  "config",
		Usage: "path to YAML config file",
		Value: "config.yaml",
	}

	app := &cli.Command{
		Name:  "ragkb",
		Usage: "local retrieval-augmented knowledge base",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP API",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, cfg, err := buildService(cmd.String("config"), log)
					if err != nil {
						return err
					}
					return runServer(ctx, cfg, svc, log)
				},
			},
			{
				Name:      "ingest",
				Usage:     "ingest files or URLs into the knowledge base",
				ArgsUsage: "<path|url> ...",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "source-id", Usage: "source id override (single document only)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args := cmd.Args().Slice()
					if len(args) == 0 {
						return fmt.Errorf("nothing to ingest")
					}
					hint := cmd.String("source-id")
					if hint != "" && len(args) > 1 {
						return fmt.Errorf("--source-id only applies to a single document")
					}
					svc, _, err := buildService(cmd.String("config"), log)
					if err != nil {
						return err
					}
					for _, arg := range args {
						var sid string
						var n int
						if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
							sid, n, err = svc.IngestURL(ctx, arg, hint)
						} else {
							sid, n, err = svc.IngestFile(ctx, arg, hint)
						}
						if err != nil {
							return fmt.Errorf("ingest %s: %w", arg, err)
						}
						fmt.Printf("%s: %d chunks\n", sid, n)
					}
					return nil
				},
			},
			{
				Name:      "ask",
				Usage:     "ask the knowledge base a question",
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{Name: "top-k", Usage: "number of chunks to retrieve", Value: 5},
					&cli.StringFlag{Name: "persona", Usage: "answer persona (e.g. diviner)"},
					&cli.BoolFlag{Name: "generative", Usage: "compose the answer with the configured generative model"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
					if question == "" {
						return fmt.Errorf("missing question")
					}
					svc, _, err := buildService(cmd.String("config"), log)
					if err != nil {
						return err
					}
					answer, hits, err := svc.Answer(ctx, question, cmd.Int("top-k"), cmd.String("persona"), cmd.Bool("generative"))
					if err != nil {
						return err
					}
					fmt.Println(answer)
					for _, h := range hits {
						fmt.Printf("\n-- %s (score %.3f)\n", h.Chunk.SourceID, h.Score)
					}
					return nil
				},
			},
			{
				Name:  "sources",
				Usage: "list ingested sources",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, _, err := buildService(cmd.String("config"), log)
					if err != nil {
						return err
					}
					sources, err := svc.Sources()
					if err != nil {
						return err
					}
					if len(sources) == 0 {
						fmt.Println("no sources ingested yet")
						return nil
					}
					for id, src := range sources {
						fmt.Printf("%s\t%s\t%s\n", id, src.Kind, src.Title)
					}
					return nil
				},
			},
			{
				Name:  "chat",
				Usage: "interactive ask loop",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "persona", Usage: "answer persona (e.g. diviner)"},
					&cli.BoolFlag{Name: "generative", Usage: "compose answers with the configured generative model"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, cfg, err := buildService(cmd.String("config"), log)
					if err != nil {
						return err
					}
					m := tui.New(svc, tui.Options{
						TopK:       cfg.Answer.TopK,
						Persona:    cmd.String("persona"),
						Generative: cmd.Bool("generative"),
					})
					_, err = tea.NewProgram(m).Run()
					return err
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// buildService assembles the knowledge base from config. The embedder and
// index are constructed once here and reused for the process lifetime.
func buildService(cfgPath string, log zerolog.Logger) (*service.Service, *config.AppConfig, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai":
		emb, err = embedding.NewOpenAI(os.Getenv(cfg.Embedder.APIKeyEnv), cfg.Embedder.Model, cfg.Embedder.Dimension)
	case "ollama":
		emb, err = embedding.NewOllama(cfg.Embedder.Host, cfg.Embedder.Model, cfg.Embedder.Dimension)
	default:
		err = fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	var gen domain.Generator
	switch cfg.Generator.Type {
	case "none", "":
	case "openai":
		gen, err = llm.NewOpenAI(os.Getenv(cfg.Generator.APIKeyEnv), cfg.Generator.Model)
	case "ollama":
		gen, err = llm.NewOllama(cfg.Generator.Host, cfg.Generator.Model)
	default:
		err = fmt.Errorf("unknown generator: %s", cfg.Generator.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	index, err := vectorindex.Open(cfg.Storage.IndexPath(), emb.Dimension(), emb.Fingerprint())
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}

	splitter, err := chunker.NewSplitter(cfg.Chunker.MaxChars, cfg.Chunker.Overlap)
	if err != nil {
		return nil, nil, fmt.Errorf("chunker config: %w", err)
	}

	svc := service.New(service.Deps{
		Splitter:  splitter,
		Embedder:  emb,
		Index:     index,
		IndexPath: cfg.Storage.IndexPath(),
		Chunks:    store.NewChunkLog(cfg.Storage.ChunksPath()),
		Sources:   store.NewSourceRegistry(cfg.Storage.SourcesPath()),
		Loader:    loader.New(time.Duration(cfg.Loader.FetchTimeoutSecs) * time.Second),
		Synth:     service.NewSynthesizer(gen, cfg.Answer.PreviewChars),
		TopK:      cfg.Answer.TopK,
		Logger:    log,
	})
	return svc, cfg, nil
}

func runServer(ctx context.Context, cfg *config.AppConfig, svc *service.Service, log zerolog.Logger) error {
	srv := server.New(cfg.Server.Addr, svc, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
