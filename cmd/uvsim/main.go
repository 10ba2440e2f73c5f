package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/shaoguangleo/uvsim/internal/beam"
	"github.com/shaoguangleo/uvsim/internal/catalog"
	"github.com/shaoguangleo/uvsim/internal/coord"
	"github.com/shaoguangleo/uvsim/internal/metrics"
	"github.com/shaoguangleo/uvsim/internal/sim"
	"github.com/shaoguangleo/uvsim/internal/sky"
	"github.com/shaoguangleo/uvsim/internal/task"
	"github.com/shaoguangleo/uvsim/internal/telescope"
)

var cli struct {
	Workers  int           `help:"Worker count; 0 means one per CPU." default:"0"`
	Antennas int           `help:"Number of antennas in the east-west line array." default:"8"`
	Spacing  float64       `help:"Antenna spacing in meters." default:"14.6"`
	Times    int           `help:"Number of integrations." default:"1"`
	Interval time.Duration `help:"Integration interval." default:"10s"`
	Start    string        `help:"Start time (RFC 3339, UTC)." default:"2018-03-01T00:00:00Z"`

	Channels     int     `help:"Number of frequency channels." default:"1"`
	StartFreq    float64 `help:"First channel center frequency in Hz." default:"150e6"`
	ChannelWidth float64 `help:"Channel width in Hz." default:"1e6"`

	Lat float64 `help:"Array latitude in degrees." default:"-30.721527"`
	Lon float64 `help:"Array longitude in degrees." default:"21.428305"`
	Alt float64 `help:"Array altitude in meters." default:"1073"`

	Catalog      string  `help:"Path to a source catalog file; overrides the mock arrangement." type:"existingfile" optional:""`
	Arrangement  string  `help:"Mock source arrangement." enum:"zenith,off-zenith,cross,triangle,long-line,random" default:"zenith"`
	Sources      int     `help:"Source count for the zenith, random and long-line arrangements." default:"0"`
	MinAlt       float64 `help:"Minimum altitude in degrees for the random and long-line arrangements." default:"0"`
	Seed         int64   `help:"Seed for the random arrangement." default:"0"`
	WriteCatalog string  `help:"Write the generated catalog to this path." optional:""`

	Beam         string  `help:"Beam model." enum:"uniform,gaussian,airy" default:"uniform"`
	BeamSigma    float64 `help:"Gaussian beam sigma in radians." default:"0"`
	BeamDiameter float64 `help:"Dish diameter in meters for the gaussian and airy beams." default:"0"`

	MetricsAddr string `help:"Serve Prometheus metrics on this address while running." optional:""`
}

func main() {
	kong.Parse(&cli)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	if err := run(logger); err != nil {
		logger.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	start, err := time.Parse(time.RFC3339, cli.Start)
	if err != nil {
		return fmt.Errorf("parsing start time: %w", err)
	}
	loc := coord.NewLocation(cli.Lat, cli.Lon, cli.Alt)

	sources, err := loadSources(start, loc)
	if err != nil {
		return err
	}
	if cli.WriteCatalog != "" {
		if err := catalog.WriteFile(cli.WriteCatalog, sources); err != nil {
			return err
		}
		logger.Info("wrote catalog", "path", cli.WriteCatalog, "sources", len(sources))
	}

	b, err := buildBeam()
	if err != nil {
		return err
	}

	geom := buildGeometry(start, loc)
	tasks, err := task.BuildTasks(geom, sources, []beam.Beam{b}, nil)
	if err != nil {
		return err
	}
	logger.Info("built tasks",
		"antennas", cli.Antennas,
		"baseline_time_rows", len(geom.Rows),
		"channels", cli.Channels,
		"sources", len(sources),
		"tasks", len(tasks),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cli.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cli.MetricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	out := sim.NewVisibilities(len(geom.Rows), cli.Channels)
	wall := time.Now()
	if err := sim.RunLocal(ctx, sim.Config{Workers: cli.Workers}, tasks, out, logger); err != nil {
		return err
	}

	logger.Info("simulation complete",
		"tasks", len(tasks),
		"nonzero_bins", out.NonzeroBins(),
		"wall_time", time.Since(wall),
	)
	return nil
}

func loadSources(start time.Time, loc coord.Location) ([]*sky.Source, error) {
	if cli.Catalog != "" {
		return catalog.ReadFile(cli.Catalog)
	}
	return catalog.Mock(cli.Arrangement, start, loc, catalog.MockOptions{
		NSrcs:     cli.Sources,
		MinAltDeg: cli.MinAlt,
		Seed:      cli.Seed,
		FreqHz:    cli.StartFreq,
	})
}

func buildBeam() (beam.Beam, error) {
	switch cli.Beam {
	case "gaussian":
		if cli.BeamSigma > 0 {
			return beam.Gaussian(cli.BeamSigma)
		}
		return beam.GaussianDish(cli.BeamDiameter)
	case "airy":
		return beam.Airy(cli.BeamDiameter)
	default:
		return beam.Uniform(), nil
	}
}

func buildGeometry(start time.Time, loc coord.Location) *task.Geometry {
	ants := make([]*telescope.Antenna, cli.Antennas)
	for i := range ants {
		ants[i] = &telescope.Antenna{
			Name:        fmt.Sprintf("ant%d", i),
			Number:      i,
			PositionENU: [3]float64{float64(i) * cli.Spacing, 0, 0},
		}
	}

	times := make([]time.Time, cli.Times)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * cli.Interval)
	}

	freqs := make([]float64, cli.Channels)
	for i := range freqs {
		freqs[i] = cli.StartFreq + float64(i)*cli.ChannelWidth
	}

	return &task.Geometry{
		Name:     "uvsim",
		Location: loc,
		Antennas: ants,
		Rows:     task.CrossRows(ants, times),
		FreqsHz:  freqs,
	}
}
