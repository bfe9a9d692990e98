package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"autobuilder/internal/generation"
	"autobuilder/internal/infra"
	"autobuilder/internal/providers/webapp"
	"autobuilder/internal/sanitize"
)

func main() {
	var (
		briefFlag    string
		outFlag      string
		sanitizeFlag string
		directFlag   bool
		timeoutFlag  time.Duration
	)
	flag.StringVar(&briefFlag, "brief", "", "Task brief to generate an app for")
	flag.StringVar(&outFlag, "out", "test_output.html", "Output file")
	flag.StringVar(&sanitizeFlag, "sanitize", "", "Clean an existing HTML file in place instead of generating")
	flag.BoolVar(&directFlag, "direct", false, "Skip the self-hosted pipe and call providers directly")
	flag.DurationVar(&timeoutFlag, "timeout", 3*time.Minute, "Overall generation timeout")
	flag.Parse()

	_ = godotenv.Load()

	if path := strings.TrimSpace(sanitizeFlag); path != "" {
		if err := sanitizeFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "sanitize %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("sanitized %s\n", path)
		return
	}

	brief := strings.TrimSpace(briefFlag)
	if brief == "" {
		brief = strings.TrimSpace(strings.Join(flag.Args(), " "))
	}
	if brief == "" {
		fmt.Fprintln(os.Stderr, "a brief is required via -brief or arguments")
		os.Exit(1)
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "genapp").Logger()

	sources := webapp.AllSources(cfg, &logger)
	if directFlag {
		sources = webapp.DirectSources(cfg, &logger)
	}
	webapp.LogSources(&logger, sources)
	pipeline := generation.NewPipeline(generation.Options{Sources: sources, Logger: &logger})

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()
	res := pipeline.Generate(ctx, brief)

	if err := os.WriteFile(outFlag, []byte(res.Document), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outFlag, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes, source %s)\n", outFlag, len(res.Document), res.Source)
}

func sanitizeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	clean := sanitize.HTML(string(raw))
	if clean == "" {
		return fmt.Errorf("no html content left after cleaning")
	}
	return os.WriteFile(path, []byte(clean), 0o644)
}
