package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dpup/postarit/internal/clients/geojson"
	"github.com/dpup/postarit/internal/clients/kml"
	"github.com/dpup/postarit/internal/config"
	"github.com/dpup/postarit/internal/lib/geo"
	"github.com/dpup/postarit/internal/lib/overlap"
	"github.com/dpup/postarit/internal/lib/projection"
	"github.com/dpup/postarit/internal/metrics"
)

// NoResultsMessage is reported when no postal area meets the overlap criteria
const NoResultsMessage = "No postal code areas met the overlap criteria."

// CoverageService runs the postal code coverage pipeline: load boundaries,
// parse the delivery area, project everything to the planar reference, and
// compute per-area overlap ratios.
type CoverageService struct {
	config    *config.CoverageConfig
	projector *projection.Projector
	engine    *overlap.Engine
}

// CheckRequest holds the raw inputs of one coverage run
type CheckRequest struct {
	Center       string    // "lat, lon"
	RadiusMeters float64   // delivery radius around the store
	Boundaries   io.Reader // postal code GeoJSON
	Delivery     io.Reader // delivery area KML
}

// CoverageArea is a qualifying postal area with its geographic outline
type CoverageArea struct {
	overlap.Result
	Outline []geo.Point `json:"-"`
}

// CoverageReport is the outcome of one coverage run
type CoverageReport struct {
	RunID         string
	Center        geo.Point
	RadiusMeters  float64
	TargetCRS     string
	MinTotalRatio float64
	PostalAreas   int
	Areas         []CoverageArea
}

// NewCoverageService creates a CoverageService for the configured reference
func NewCoverageService(cfg *config.CoverageConfig) (*CoverageService, error) {
	projector, err := projection.New(cfg.TargetCRS)
	if err != nil {
		return nil, fmt.Errorf("failed to create projector: %w", err)
	}

	return &CoverageService{
		config:    cfg,
		projector: projector,
		engine:    overlap.NewEngine(cfg.EngineOptions()),
	}, nil
}

// Check runs the full pipeline for one request. The center text is validated
// before either input document is read.
func (s *CoverageService) Check(ctx context.Context, req CheckRequest) (*CoverageReport, error) {
	runID := uuid.NewString()
	start := time.Now()

	report, err := s.check(ctx, runID, req)

	metrics.RunDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		kind := geo.Kind(err)
		metrics.RunsTotal.WithLabelValues(string(kind)).Inc()
		slog.Error("Coverage run failed", "run_id", runID, "kind", kind, "error", err)
		return nil, err
	}

	metrics.RunsTotal.WithLabelValues("ok").Inc()
	metrics.ResultsEmitted.Observe(float64(len(report.Areas)))
	log.Printf("Coverage run %s: %d of %d postal areas qualify (%v)",
		runID, len(report.Areas), report.PostalAreas, time.Since(start).Round(time.Millisecond))
	return report, nil
}

func (s *CoverageService) check(ctx context.Context, runID string, req CheckRequest) (*CoverageReport, error) {
	center, err := geo.ParseCenter(req.Center)
	if err != nil {
		return nil, err
	}
	if req.RadiusMeters <= 0 {
		return nil, &geo.InputError{Msg: fmt.Sprintf("radius must be a positive number of meters, got %v", req.RadiusMeters)}
	}
	if req.Boundaries == nil || req.Delivery == nil {
		return nil, &geo.InputError{Msg: "both a postal boundaries file and a delivery area file are required"}
	}

	log.Printf("Coverage run %s: center %.6f,%.6f radius %.0fm", runID, center.Latitude, center.Longitude, req.RadiusMeters)

	postalCodes, err := geojson.Load(req.Boundaries)
	if err != nil {
		return nil, fmt.Errorf("failed to load postal boundaries: %w", err)
	}
	metrics.PostalAreasLoaded.Observe(float64(len(postalCodes.Features)))

	deliveryArea, err := kml.Parse(req.Delivery)
	if err != nil {
		return nil, fmt.Errorf("failed to parse delivery area: %w", err)
	}

	projectedCodes, err := s.projector.Project(postalCodes)
	if err != nil {
		return nil, fmt.Errorf("failed to project postal boundaries: %w", err)
	}
	projectedDelivery, err := s.projector.Project(deliveryArea)
	if err != nil {
		return nil, fmt.Errorf("failed to project delivery area: %w", err)
	}
	projectedCenter, err := s.projector.ProjectPoint(center)
	if err != nil {
		return nil, fmt.Errorf("failed to project store location: %w", err)
	}

	if s.config.ComputeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ComputeTimeout)
		defer cancel()
	}

	results, err := s.engine.Compute(ctx, projectedCodes.Features, projectedDelivery.Features, projectedCenter, req.RadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("failed to compute coverage: %w", err)
	}

	areas := make([]CoverageArea, 0, len(results))
	for _, r := range results {
		areas = append(areas, CoverageArea{
			Result:  r,
			Outline: postalCodes.Features[r.Index].Outline,
		})
	}

	return &CoverageReport{
		RunID:         runID,
		Center:        center,
		RadiusMeters:  req.RadiusMeters,
		TargetCRS:     s.projector.Target(),
		MinTotalRatio: s.engine.Options().MinTotalRatio,
		PostalAreas:   len(postalCodes.Features),
		Areas:         areas,
	}, nil
}

// FormatResult renders a result with integer-rounded percentages
func FormatResult(r overlap.Result) string {
	return fmt.Sprintf("%s: Delivery area %.0f%%, delivery radius %.0f%%, total %.0f%%",
		r.ID, r.DeliveryPct*100, r.RadiusPct*100, r.TotalPct*100)
}

// Heading describes what the listed areas qualified for
func (r *CoverageReport) Heading() string {
	return fmt.Sprintf("Postal codes with >=%.0f%% total (delivery ∩ radius) overlap:", r.MinTotalRatio*100)
}

// Lines returns one display line per qualifying postal area
func (r *CoverageReport) Lines() []string {
	lines := make([]string, 0, len(r.Areas))
	for _, a := range r.Areas {
		lines = append(lines, FormatResult(a.Result))
	}
	return lines
}

// WriteKML renders the qualifying postal areas as a KML document
func (r *CoverageReport) WriteKML(w io.Writer) error {
	areas := make([]kml.Area, 0, len(r.Areas))
	for _, a := range r.Areas {
		areas = append(areas, kml.Area{
			Name:        a.ID,
			Description: FormatResult(a.Result),
			Outline:     a.Outline,
		})
	}
	return kml.WriteAreas(w, fmt.Sprintf("Delivery coverage %.0fm", r.RadiusMeters), areas)
}
