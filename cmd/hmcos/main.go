// Package main provides the hmcos CLI: load an ONNX model, schedule its
// ops for minimum peak memory, and report the result against the
// reverse-post-order baseline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hmcos-go/hmcos/graph"
	"github.com/hmcos-go/hmcos/onnx"
	"github.com/hmcos-go/hmcos/schedule"
)

const version = "v0.1.0-dev"

// config is the optional YAML file a caller may pass via -config,
// letting Serenity's sample count and seed be tuned without a rebuild.
type config struct {
	BudgetBytes       int64 `yaml:"budget_bytes"`
	SerenitySample    int   `yaml:"serenity_samples"`
	SerenitySeed      int64 `yaml:"serenity_seed"`
	SerenityJoinOps   bool  `yaml:"serenity_join_ops"`
	SerenityTrySimple bool  `yaml:"serenity_try_simple"`
	UseSerenity       bool  `yaml:"use_serenity"`
}

func loadConfig(path string) (config, error) {
	cfg := config{BudgetBytes: 1 << 30, SerenityJoinOps: true, SerenityTrySimple: true}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("hmcos %s\n", version)
		return
	}

	budget := flag.Int64("budget", 1<<30, "memory budget in bytes")
	configPath := flag.String("config", "", "optional YAML config file")
	useSerenity := flag.Bool("serenity", false, "use the random-sampling scheduler instead of the exact DP")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: hmcos [-budget bytes] [-config file] [-serenity] <model.onnx>")
		os.Exit(2)
	}
	modelPath := flag.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("hmcos: %v", err)
	}
	if *budget != 1<<30 {
		cfg.BudgetBytes = *budget
	}
	if *useSerenity {
		cfg.UseSerenity = true
	}

	src, err := onnx.Load(modelPath)
	if err != nil {
		log.Fatalf("hmcos: load model: %v", err)
	}
	g, err := graph.Build(src)
	if err != nil {
		log.Fatalf("hmcos: build graph: %v", err)
	}

	baseline := schedule.Baseline(g)
	baselinePeak := schedule.EstimatePeak(g, baseline)

	var order schedule.Order
	var peak int64
	if cfg.UseSerenity {
		serenityCfg := schedule.SerenityConfig{
			Samples:   cfg.SerenitySample,
			Seed:      cfg.SerenitySeed,
			Parallel:  true,
			JoinOps:   cfg.SerenityJoinOps,
			TrySimple: cfg.SerenityTrySimple,
		}
		order, peak = schedule.RunSerenity(g, serenityCfg)
	} else {
		order, peak, err = schedule.Run(g, cfg.BudgetBytes)
		if err != nil {
			log.Printf("hmcos: %v (best found: %d bytes)", err, peak)
		}
	}

	fmt.Printf("ops: %d\n", g.NumOps())
	fmt.Printf("baseline (reverse post order) peak: %d KB\n", baselinePeak/1024)
	fmt.Printf("scheduled peak:                     %d KB\n", peak/1024)
	if len(order) > 0 && baselinePeak > 0 {
		fmt.Printf("reduction: %.1f%%\n", 100*(1-float64(peak)/float64(baselinePeak)))
	}
}
