// Command ioplace places the boundary pins of a design file and prints the
// resulting place_pin commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/placer"
)

func main() {
	var (
		designPath = flag.String("design", "", "Path to the YAML design file")
		configPath = flag.String("config", "", "Path to a YAML or TOML options file")
		random     = flag.Bool("random", false, "Use simulated annealing")
		seed       = flag.Int64("seed", 0, "Random seed (overrides the options file when set)")
		out        = flag.String("o", "", "Write place_pin commands to this file instead of stdout")
		level      = zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	)
	flag.Parse()

	if *designPath == "" {
		fmt.Println("Usage: ioplace -design <design.yaml> [-config <ioplace.yaml|toml>] [-random] [-seed N] [-o pins.tcl]")
		os.Exit(1)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	opts := placer.DefaultOptions()
	if *configPath != "" {
		if opts, err = placer.LoadOptions(*configPath); err != nil {
			logger.Fatal("load options", zap.Error(err))
		}
	}
	if *random {
		opts.RandomMode = true
	}
	if *seed != 0 {
		opts.RandomSeed = *seed
	}
	if *out != "" {
		opts.PinPlacementFile = *out
	}

	design, err := placer.LoadDesign(*designPath)
	if err != nil {
		logger.Fatal("load design", zap.Error(err))
	}
	p, err := placer.New(design, opts, logger)
	if err != nil {
		logger.Fatal("setup", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := p.Run(ctx)
	if err != nil {
		logger.Fatal("placement failed", zap.Error(err))
	}
	if opts.PinPlacementFile == "" {
		if err = placer.WritePinPlacement(os.Stdout, res); err != nil {
			logger.Fatal("write placement", zap.Error(err))
		}
	}
}
