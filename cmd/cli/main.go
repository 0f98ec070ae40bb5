package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/nfl-lineup-optimizer/internal/export"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/models"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/pool"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/rules"
	"github.com/stitts-dev/nfl-lineup-optimizer/internal/services"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/config"
	"github.com/stitts-dev/nfl-lineup-optimizer/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "optimize":
		cmdOptimize(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli optimize --site dk --config config.json --lineups 20 --uniques 3 --out output/dk_optimal_lineups.csv [--seed N]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - projection and player files are named in the rule config, relative to it")
	fmt.Println("  - SOLVER=cbc uses the cbc binary at CBC_PATH instead of the built-in solver")
}

type optimizeOptions struct {
	site       string
	configPath string
	outPath    string
	lineups    int
	uniques    int
	seed       uint64
}

func cmdOptimize(args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	site := fs.String("site", "dk", "Site key: dk or fd")
	cfgPath := fs.String("config", "config.json", "Path to the rule config (json, yaml or toml)")
	lineups := fs.Int("lineups", 20, "Number of lineups to generate")
	uniques := fs.Int("uniques", 1, "Minimum players each lineup must differ by")
	outPath := fs.String("out", "", "Output CSV path (default output/<site>_optimal_lineups.csv)")
	seed := fs.Uint64("seed", 0, "Random seed for projection noise (0 = use config or time)")
	_ = fs.Parse(args)

	if *outPath == "" {
		*outPath = fmt.Sprintf("output/%s_optimal_lineups.csv", *site)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.InitLogger(logger.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: cfg.IsDevelopment(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runOptimize(ctx, optimizeOptions{
		site:       *site,
		configPath: *cfgPath,
		outPath:    *outPath,
		lineups:    *lineups,
		uniques:    *uniques,
		seed:       *seed,
	}, cfg, log, os.Stdout)
	if err != nil {
		log.WithError(err).Error("Optimization failed")
		os.Exit(1)
	}
}

func runOptimize(ctx context.Context, opts optimizeOptions, cfg *config.Config, log *logrus.Logger, out io.Writer) error {
	site, err := models.GetSite(opts.site)
	if err != nil {
		return err
	}

	rs, err := rules.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	if opts.seed != 0 {
		rs.Seed = opts.seed
	}
	if rs.ProjectionPath == "" {
		return fmt.Errorf("%s: projection_path is required", opts.configPath)
	}

	entry := log.WithField("site", site.Key)
	p, report, err := pool.Load(rs.ProjectionPath, rs.PlayerPath, pool.LoadOptions{
		Site:              site,
		ProjectionMinimum: rs.ProjectionMinimum,
		StdDevFractions:   rs.StdDevFractions,
		RequireIDs:        rs.RequireIDs,
	}, entry)
	if err != nil {
		return err
	}

	lpSolver, err := services.NewSolver(cfg, log)
	if err != nil {
		return err
	}

	svc := services.NewOptimizationService(lpSolver, cfg, log)
	result, err := svc.Run(ctx, services.Request{
		Site:       site,
		NumLineups: opts.lineups,
		NumUniques: opts.uniques,
		Rules:      rs,
		Pool:       p,
	})
	if err != nil {
		return err
	}

	skipped, err := export.NewExportService(entry).WriteFile(opts.outPath, result.Lineups, site)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Loaded %d players (%d joined, %d removed without ids)\n", p.Len(), report.Joined, report.Removed)
	fmt.Fprintf(out, "Requested %d lineups, delivered %d", result.Requested, result.Delivered-skipped)
	if short := result.Requested - result.Delivered + skipped; short > 0 {
		fmt.Fprintf(out, " (%d short)", short)
	}
	fmt.Fprintf(out, "\nWrote %s\n", opts.outPath)
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	if len(result.Exposures) > 0 {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PLAYER\tPOS\tTEAM\tLINEUPS\tEXPOSURE")
		for i, e := range result.Exposures {
			if i == 10 {
				break
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f%%\n", e.Name, e.Position, e.Team, e.Count, e.Percent)
		}
		tw.Flush()
	}
	return nil
}
