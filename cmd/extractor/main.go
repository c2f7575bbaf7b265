package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/config"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/dates"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/fetch"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/keywords"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/logger"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/output"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/pipeline"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/session"
	"github.com/Devarsh-leo/news-feed-extractor-worker/internal/sites"
	"github.com/Devarsh-leo/news-feed-extractor-worker/pkg/sinks"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("extractor", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file (YAML)")
	listSites := fs.Bool("list-sites", false, "print the supported site URLs and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: extractor [flags] <site-url,from-date,to-date> ...\n")
		fmt.Fprintf(fs.Output(), "dates are YYYY-MM-DD; each argument is one extraction job\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	// .env is optional; real env wins either way.
	_ = godotenv.Load()

	registry := sites.DefaultRegistry()
	if *listSites {
		for _, id := range registry.Identities() {
			fmt.Println(id)
		}
		return nil
	}

	reqs, err := parseRequests(fs.Args())
	if err != nil {
		fs.Usage()
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return err
	}

	kw := keywords.NewStore(cfg.KeywordsPath, log)
	norm := dates.NewNormalizer(log)
	client := session.DefaultClient(cfg.HTTP.Timeout(), cfg.HTTP.MaxRetries, cfg.HTTP.UserAgent)

	store, err := session.OpenStore(cfg.SessionDB)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionSinks, err := loadSinks(cfg.SinksPath, log)
	if err != nil {
		return err
	}

	mgr, err := session.NewManager(session.Options{
		Registry: registry,
		NewRunner: func(staging *output.Staging) session.Runner {
			return pipeline.New(client, kw, norm, staging, log)
		},
		Aggregator: session.DefaultAggregator(
			output.NewAggregator(cfg.OutputDir, fetch.New(client, log), log),
		),
		Store:      store,
		Sinks:      sessionSinks,
		StagingDir: cfg.StagingDir,
		Workers:    cfg.Workers,
		Log:        log,
	})
	if err != nil {
		return err
	}

	id, err := mgr.Submit(reqs)
	if err != nil {
		return err
	}
	log.InfoObj("session submitted", "session_submitted", map[string]any{
		"session_id": id,
		"jobs":       len(reqs),
	})

	reportPath, err := mgr.Wait(id)
	if err != nil {
		return err
	}

	fmt.Println(reportPath)
	return nil
}

// parseRequests turns "site-url,from,to" arguments into job requests.
func parseRequests(args []string) ([]session.JobRequest, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one <site-url,from-date,to-date> argument is required")
	}

	reqs := make([]session.JobRequest, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed job %q: want site-url,from-date,to-date", arg)
		}
		reqs = append(reqs, session.JobRequest{
			SiteURL:  strings.TrimSpace(parts[0]),
			FromDate: strings.TrimSpace(parts[1]),
			ToDate:   strings.TrimSpace(parts[2]),
		})
	}
	return reqs, nil
}

// loadSinks builds the report sinks when a sinks file is configured.
func loadSinks(path string, log logger.Logger) ([]sinks.Sink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WarnObj("sinks file not found, reports stay local", "sinks_file_missing", map[string]any{
			"path": path,
		})
		return nil, nil
	}

	cfgs, err := sinks.LoadConfigs(path)
	if err != nil {
		return nil, err
	}
	return sinks.BuildAll(context.Background(), sinks.DefaultRegistry(), cfgs, log)
}
