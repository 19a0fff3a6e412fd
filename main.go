package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func printBanner() {
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Printf("║  %-40s║\n", T("banner_title"))
	fmt.Println("╚══════════════════════════════════════════╝")
}

func run() int {
	envPath := flag.String("env", ".env", "path to the env config file")
	selectorsPath := flag.String("selectors", "selectors.yaml", "path to the selector override file")
	runsDir := flag.String("runs", "runs", "base directory for run artifacts")
	headless := flag.Bool("headless", false, "run the browser headless")
	debug := flag.Bool("debug", false, "verbose step logging")
	dryRun := flag.Bool("dry-run", false, "stop before submitting the payment")
	flag.Parse()

	InitLocale()

	config, err := LoadConfig(*envPath, *selectorsPath)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		return 2
	}
	if *headless {
		config.Headless = true
	}
	if *debug {
		config.DebugMode = true
	}
	if *dryRun {
		config.DryRun = true
	}

	artifacts, err := NewRunArtifacts(*runsDir)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		return 2
	}
	defer artifacts.Close()

	printBanner()
	if config.DryRun {
		fmt.Println(T("dry_run_mode"))
	}
	if config.DebugMode {
		fmt.Println(T("debug_mode"))
	}
	if !StdinIsInteractive() {
		fmt.Println(T("stdin_not_interactive"))
	}

	artifacts.Log.Printf("Favorite cart: %q, expected total: %s",
		config.FavoriteName, FormatMoney(config.ExpectedCentavos))
	artifacts.Log.Printf("Card on file: %s (saved card: %v)",
		MaskCard(config.CardNumber), config.UseSavedCard)

	automation := NewAutomation(config, artifacts)
	defer automation.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println()
		fmt.Println(T("interrupt_received"))
		automation.Close()
		artifacts.Close()
		os.Exit(130)
	}()

	if err := automation.setupBrowser(); err != nil {
		artifacts.Log.Printf("Browser setup failed: %v", err)
		fmt.Println(T("run_failed"))
		fmt.Printf(T("run_failed_reason")+"\n", err)
		return 1
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"login", automation.RunLogin},
		{"favorites", automation.RunFavorites},
		{"checkout", automation.RunCheckoutAndPayment},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			kind := kindOf(err)
			if kind == "" {
				kind = "error"
			}
			artifacts.Log.Printf("Automation failed at step %s [%s]: %v", step.name, kind, err)
			automation.Snapshot("fatal_error")
			fmt.Println(T("run_failed"))
			fmt.Printf(T("run_failed_reason")+"\n", err)
			fmt.Printf(T("artifacts_at")+"\n", artifacts.Dir)
			return 1
		}
	}

	artifacts.Log.Printf("Flow completed")
	fmt.Println(T("run_success"))
	fmt.Printf(T("artifacts_at")+"\n", artifacts.Dir)
	return 0
}

func main() {
	os.Exit(run())
}
