package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"chainscrape-go/pkg/config"
	"chainscrape-go/pkg/engine"
	"chainscrape-go/pkg/logger"
	"chainscrape-go/pkg/shell"
	"chainscrape-go/pkg/tui"
)

func main() {
	var (
		showLedger = flag.Bool("ledger", false, "Print the current blockchain ledger and exit")
		showReport = flag.Bool("report", false, "Print the engine's analysis report and exit")

		configShow = flag.Bool("config-show", false, "Show current configuration")
		configSet  = flag.String("config-set", "", "Set a config value (format: section.key=value)")
	)
	flag.Parse()

	defer logger.CloseLog()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.SetDirectory(cfg.Console.LogDir)

	if *configShow {
		path, _ := config.Path()
		fmt.Printf("# %s\n", path)
		fmt.Printf("engine.base_url = %q\n", cfg.Engine.BaseURL)
		fmt.Printf("engine.request_timeout = %d\n", cfg.Engine.RequestTimeout)
		fmt.Printf("scrape.default_url = %q\n", cfg.Scrape.DefaultURL)
		fmt.Printf("scrape.max_pages = %d\n", cfg.Scrape.MaxPages)
		fmt.Printf("scrape.delay_ms = %d\n", cfg.Scrape.DelayMS)
		fmt.Printf("console.auto_scroll = %t\n", cfg.Console.AutoScroll)
		fmt.Printf("console.export_dir = %q\n", cfg.Console.ExportDir)
		fmt.Printf("console.log_dir = %q\n", cfg.Console.LogDir)
		return
	}
	if *configSet != "" {
		if err := config.Set(cfg, *configSet); err != nil {
			log.Fatalf("failed to set config: %v", err)
		}
		if err := config.Save(cfg); err != nil {
			log.Fatalf("failed to save config: %v", err)
		}
		fmt.Println("Configuration updated successfully")
		return
	}

	client := engine.NewClient(cfg.Engine.BaseURL, cfg.Engine.APIKey,
		time.Duration(cfg.Engine.RequestTimeout)*time.Second)

	// Headless one-shot modes.
	if *showLedger || *showReport {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Engine.RequestTimeout)*time.Second)
		defer cancel()

		if *showLedger {
			printLedger(ctx, client)
		} else {
			printReport(ctx, client)
		}
		return
	}

	ctrl := shell.NewController(client, shell.WithScrapeDelay(cfg.Scrape.DelayMS))
	model := tui.NewModel(ctrl, cfg)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printLedger(ctx context.Context, client *engine.Client) {
	records, err := client.LedgerSnapshot(ctx)
	if err != nil {
		log.Fatalf("failed to fetch ledger: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("Ledger is empty.")
		return
	}

	fmt.Printf("%-6s %-20s %-18s %-18s %s\n", "Index", "Timestamp", "Hash", "Previous Hash", "Data Type")
	for _, rec := range records {
		hash := rec.Hash
		if len(hash) > 16 {
			hash = hash[:16] + ".."
		}
		prev := rec.PreviousHash
		if len(prev) > 16 {
			prev = prev[:16] + ".."
		}
		fmt.Printf("%-6d %-20s %-18s %-18s %s\n",
			rec.Index, rec.Timestamp.Format("2006-01-02 15:04:05"), hash, prev, rec.DataType)
	}
	fmt.Printf("\nTotal: %d block(s)\n", len(records))
}

func printReport(ctx context.Context, client *engine.Client) {
	report, err := client.GenerateReport(ctx)
	if err != nil {
		log.Fatalf("failed to generate report: %v", err)
	}
	fmt.Println(report)
}
