package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/timmy/vodhub/internal/config"
	"github.com/timmy/vodhub/internal/loader"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/source"
	"github.com/timmy/vodhub/internal/source/cms"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		ServiceName: "vodhub-browse",
		Output:      os.Stderr,
	})
	logger.SetDefaultLogger(appLogger)

	sourceID := flag.String("source", "", "Source key to browse (default: first enabled source)")
	filterID := flag.String("filter", "", "Category type id to filter by")
	keyword := flag.String("keyword", "", "Search keyword")
	pages := flag.Int("pages", 3, "Maximum number of pages to load")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	gateway := cms.NewGateway(&cms.Config{
		Timeout:    cfg.Gateway.Timeout,
		RetryCount: cfg.Gateway.RetryCount,
		UserAgent:  cfg.Gateway.UserAgent,
	}, cfg.SourceSites())

	if *sourceID == "" {
		sites := gateway.Sites()
		if len(sites) == 0 {
			appLogger.Fatal("No enabled video sources configured")
		}
		*sourceID = sites[0].Key
	}
	site, ok := gateway.Site(*sourceID)
	if !ok {
		appLogger.WithField(logger.FieldSource, *sourceID).Fatal("Unknown or disabled source")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.SetComponent(ctx, "browse")

	fmt.Printf("Source: %s (%s)\n", site.Name, site.Key)
	printCategories(ctx, gateway, site.Key)

	l := loader.New(gateway, loader.Config{
		PageSize:     cfg.Loader.PageSize,
		FetchTimeout: cfg.Loader.FetchTimeout,
	})
	l.Reset(source.ListQuery{SourceID: site.Key, FilterID: *filterID, Keyword: *keyword})

	shown := 0
	for page := 0; page < *pages && ctx.Err() == nil; page++ {
		outcome := l.LoadNext(ctx)
		if outcome == loader.OutcomeFailed {
			// one retry; the loader re-requests the same page
			outcome = l.LoadNext(ctx)
		}

		st := l.State()
		switch outcome {
		case loader.OutcomeLoaded:
			fmt.Printf("\n-- page %d --\n", st.NextPage-1)
			for _, v := range st.Items[shown:] {
				fmt.Printf("%6s  %-40s %-6s %s\n", v.ID, v.Title, v.Year, v.CategoryName)
			}
			shown = len(st.Items)
		case loader.OutcomeFailed:
			fmt.Fprintf(os.Stderr, "page %d failed: %s\n", st.NextPage, st.Error)
			os.Exit(1)
		}

		if !st.HasMore {
			fmt.Printf("\nEnd of list: %d items.\n", len(st.Items))
			return
		}
	}
	fmt.Printf("\nShown %d items; more available.\n", shown)
}

func printCategories(ctx context.Context, gateway source.Gateway, sourceID string) {
	cats, err := gateway.FetchCategories(ctx, sourceID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "categories unavailable: %v\n", err)
		return
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.IsTopLevel() {
			names = append(names, fmt.Sprintf("%s=%d", c.Name, c.TypeID))
		}
	}
	fmt.Printf("Categories: %s\n", strings.Join(names, ", "))
}
