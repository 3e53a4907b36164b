package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"bookmap/internal/catalog"
	"bookmap/internal/config"
	"bookmap/internal/corpus"
	"bookmap/internal/domain"
	"bookmap/internal/embedding/hashed"
	"bookmap/internal/embedding/tfidf"
	"bookmap/internal/embedding/wordvec"
	"bookmap/internal/loader"
	"bookmap/internal/records"
	"bookmap/internal/reducer"
	"bookmap/internal/service"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		clean bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Filter the catalog, embed every text and write the projected records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("limit") {
				a.cfg.Catalog.Limit = limit
			}
			if err := config.Validate(a.cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runPipeline(cmd.Context(), a, clean, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "Also write the clean projection to paths.clean_json")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many catalog entries (0 means all)")
	return cmd
}

func runPipeline(ctx context.Context, a *app, clean bool, out io.Writer) error {
	cfg := a.cfg
	if clean && cfg.Paths.CleanJSON == "" {
		return errors.New("--clean needs paths.clean_json")
	}

	recs, err := loadCatalog(a.fs, cfg)
	if err != nil {
		return err
	}
	a.log.Info("catalog filtered", "documents", len(recs), "path", cfg.Paths.CatalogCSV)

	emb, err := newEmbedder(a.fs, cfg.Vectorizer)
	if err != nil {
		return err
	}
	red, err := reducer.New(reducerConfig(cfg.Reducer), a.log.With("stage", "reduce"))
	if err != nil {
		return err
	}
	key, err := corpus.KeyFuncFor(cfg.Corpus.Key)
	if err != nil {
		return err
	}
	pipe := service.NewPipeline(loader.New(a.fs), emb, red, service.Options{
		Key:            key,
		MaxChars:       cfg.Vectorizer.MaxChars,
		IncludeVectors: cfg.Output.IncludeVectors,
	}, a.log)

	res, err := pipe.Run(ctx, recs)
	if err != nil {
		return err
	}
	if err := records.Write(a.fs, cfg.Paths.OutputJSON, res.Records); err != nil {
		return err
	}
	a.log.Info("records written", "count", len(res.Records), "path", cfg.Paths.OutputJSON)

	if clean {
		if err := records.Write(a.fs, cfg.Paths.CleanJSON, records.Clean(res.Records)); err != nil {
			return err
		}
		a.log.Info("clean records written", "count", len(res.Records), "path", cfg.Paths.CleanJSON)
	}
	printStats(out, res.Stats)
	return nil
}

func loadCatalog(fsys afero.Fs, cfg *config.AppConfig) ([]domain.DocumentRecord, error) {
	f, err := fsys.Open(cfg.Paths.CatalogCSV)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	entries, err := catalog.Read(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", cfg.Paths.CatalogCSV, err)
	}
	filtered := catalog.Filter(entries, catalog.Rules{
		Languages:       cfg.Catalog.Languages,
		Genres:          cfg.Catalog.Genres,
		ExcludedAuthors: cfg.Catalog.ExcludedAuthors,
		Limit:           cfg.Catalog.Limit,
	})
	return catalog.Records(filtered, cfg.Paths.TextDir), nil
}

func newEmbedder(fsys afero.Fs, cfg config.VectorizerConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashed", "":
		dim := cfg.Dimension
		if dim == 0 {
			dim = hashed.DefaultDimension
		}
		return hashed.NewEmbedder(dim, 0)
	case "tfidf":
		return tfidf.NewEmbedder(cfg.Dimension), nil
	case "wordvec":
		return wordvec.Load(fsys, cfg.VectorsPath)
	default:
		return nil, fmt.Errorf("unknown vectorizer: %s", cfg.Type)
	}
}

func reducerConfig(rc config.ReducerConfig) reducer.Config {
	c := reducer.DefaultConfig()
	c.Perplexity = rc.Perplexity
	c.Iterations = rc.Iterations
	c.LearningRate = rc.LearningRate
	c.EarlyExaggeration = rc.EarlyExaggeration
	c.Metric = rc.Metric
	c.Init = rc.Init
	c.Seed = rc.Seed
	c.AdaptPerplexity = rc.AdaptPerplexity
	return c
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func printStats(w io.Writer, s service.Stats) {
	rows := []struct {
		label string
		value int
		warn  bool
	}{
		{"input", s.Input, false},
		{"loaded", s.Loaded, false},
		{"not found", s.NotFound, s.NotFound > 0},
		{"bad utf-8", s.Invalid, s.Invalid > 0},
		{"too long", s.TooLong, s.TooLong > 0},
		{"vectorized", s.Vectorized, false},
		{"collisions", s.Collisions, s.Collisions > 0},
		{"output", s.Output, false},
	}
	for _, r := range rows {
		style := valueStyle
		if r.warn {
			style = warnStyle
		}
		fmt.Fprintln(w, labelStyle.Render(r.label)+style.Render(fmt.Sprint(r.value)))
	}
}
