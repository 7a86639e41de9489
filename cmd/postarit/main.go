package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/dpup/prefab"

	"github.com/dpup/postarit/internal/config"
	"github.com/dpup/postarit/internal/lib/geo"
	"github.com/dpup/postarit/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "check":
		handleCheck()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleCheck() {
	defaults, err := config.Load(prefab.Config)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fs := flag.NewFlagSet("check", flag.ExitOnError)
	boundariesPath := fs.String("boundaries", "", "Postal code boundaries GeoJSON file")
	deliveryPath := fs.String("delivery", "", "Delivery area KML file")
	center := fs.String("center", defaults.Coverage.DefaultCenter, "Store location as \"lat, lon\"")
	radius := fs.Float64("radius", defaults.Coverage.DefaultRadiusMeters, "Delivery radius in meters")
	targetCRS := fs.String("crs", defaults.Coverage.TargetCRS, "Planar reference for area math (EPSG code or proj4)")
	minTotal := fs.Float64("min-total", defaults.Coverage.MinTotalRatio, "Smallest combined coverage ratio to report")
	kmlOut := fs.String("kml", "", "Also write qualifying postal areas to this KML file")

	fs.Parse(os.Args[2:])

	if *boundariesPath == "" || *deliveryPath == "" {
		fmt.Println("Example usage:")
		fmt.Println("  postarit check --boundaries postal_codes.geojson --delivery delivery_area.kml")
		fmt.Println("  postarit check --boundaries postal_codes.geojson --delivery delivery_area.kml --center \"60.45, 22.26\" --radius 5000")
		os.Exit(1)
	}

	if err := validateMinTotal(*minTotal); err != nil {
		log.Fatalf("Error: %v", err)
	}

	cfg := defaults.Coverage
	cfg.TargetCRS = *targetCRS
	cfg.MinTotalRatio = *minTotal

	service, err := services.NewCoverageService(&cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	// Reject a malformed center before opening any file
	if _, err := geo.ParseCenter(*center); err != nil {
		log.Fatalf("Error: %v", err)
	}

	boundaries, err := os.Open(*boundariesPath)
	if err != nil {
		log.Fatalf("Failed to open boundaries file: %v", err)
	}
	defer boundaries.Close()

	delivery, err := os.Open(*deliveryPath)
	if err != nil {
		log.Fatalf("Failed to open delivery file: %v", err)
	}
	defer delivery.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := service.Check(ctx, services.CheckRequest{
		Center:       *center,
		RadiusMeters: *radius,
		Boundaries:   boundaries,
		Delivery:     delivery,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error (%s): %v\n", geo.Kind(err), err)
		os.Exit(1)
	}

	printReport(os.Stdout, report)

	if *kmlOut != "" {
		f, err := os.Create(*kmlOut)
		if err != nil {
			log.Fatalf("Failed to create KML file: %v", err)
		}
		if err := report.WriteKML(f); err != nil {
			f.Close()
			log.Fatalf("Failed to write KML file: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to write KML file: %v", err)
		}
		fmt.Printf("\nWrote %d postal areas to %s\n", len(report.Areas), *kmlOut)
	}
}

// validateMinTotal rejects ratios the engine would silently replace with its
// default.
func validateMinTotal(ratio float64) error {
	if ratio <= 0 || ratio > 1 {
		return &geo.InputError{Msg: fmt.Sprintf("min-total must be in (0, 1], got %v", ratio)}
	}
	return nil
}

// printReport writes the qualifying areas under a heading, or only the
// no-results message when nothing qualified.
func printReport(w io.Writer, report *services.CoverageReport) {
	if len(report.Areas) == 0 {
		fmt.Fprintln(w, services.NoResultsMessage)
		return
	}
	fmt.Fprintln(w, report.Heading())
	for _, line := range report.Lines() {
		fmt.Fprintln(w, line)
	}
}

func printUsage() {
	fmt.Println("postarit - postal code delivery coverage")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  postarit <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check    List postal codes covered by a delivery area and radius")
	fmt.Println("  help     Show this help message")
	fmt.Println()
	fmt.Println("Use 'postarit <command> --help' for command-specific options")
}
