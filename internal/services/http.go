package services

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dpup/postarit/internal/lib/geo"
	"github.com/dpup/postarit/internal/lib/overlap"
)

// CoverageHandler serves coverage runs over HTTP as multipart uploads
type CoverageHandler struct {
	service        *CoverageService
	maxUploadBytes int64
}

// coverageArea is the JSON form of a qualifying postal area
type coverageArea struct {
	overlap.Result
	Line    string `json:"line"`
	Outline string `json:"outline,omitempty"` // encoded polyline
}

type coverageResponse struct {
	RunID        string         `json:"run_id"`
	Center       geo.Point      `json:"center"`
	RadiusMeters float64        `json:"radius_meters"`
	TargetCRS    string         `json:"target_crs"`
	PostalAreas  int            `json:"postal_areas"`
	Heading      string         `json:"heading"`
	Results      []coverageArea `json:"results"`
	Message      string         `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// NewCoverageHandler creates a handler; maxUploadBytes <= 0 leaves uploads unbounded
func NewCoverageHandler(service *CoverageService, maxUploadBytes int64) *CoverageHandler {
	return &CoverageHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// ServeHTTP accepts POST multipart/form-data with the fields:
//
//	boundaries  postal code GeoJSON file
//	delivery    delivery area KML file
//	center      "lat, lon" (defaults to the configured store location)
//	radius      delivery radius in meters (defaults to the configured radius)
//	format      json (default) or kml
func (h *CoverageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, &geo.InputError{Msg: "use POST with multipart/form-data"})
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, &geo.InputError{Msg: "invalid multipart upload", Err: err})
		return
	}
	defer r.MultipartForm.RemoveAll()

	center := strings.TrimSpace(r.FormValue("center"))
	if center == "" {
		center = h.service.config.DefaultCenter
	}

	radius := h.service.config.DefaultRadiusMeters
	if text := strings.TrimSpace(r.FormValue("radius")); text != "" {
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, &geo.InputError{Msg: fmt.Sprintf("invalid radius %q", text), Err: err})
			return
		}
		radius = parsed
	}

	format := strings.ToLower(strings.TrimSpace(r.FormValue("format")))
	if format != "" && format != "json" && format != "kml" {
		writeError(w, http.StatusBadRequest, &geo.InputError{Msg: fmt.Sprintf("unsupported format %q", format)})
		return
	}

	// Validate the center before touching the uploads
	if _, err := geo.ParseCenter(center); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	boundaries, _, err := r.FormFile("boundaries")
	if err != nil {
		writeError(w, http.StatusBadRequest, &geo.InputError{Msg: "missing boundaries file", Err: err})
		return
	}
	defer boundaries.Close()

	delivery, _, err := r.FormFile("delivery")
	if err != nil {
		writeError(w, http.StatusBadRequest, &geo.InputError{Msg: "missing delivery file", Err: err})
		return
	}
	defer delivery.Close()

	report, err := h.service.Check(r.Context(), CheckRequest{
		Center:       center,
		RadiusMeters: radius,
		Boundaries:   boundaries,
		Delivery:     delivery,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if format == "kml" {
		w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "coverage-"+report.RunID+".kml"))
		if err := report.WriteKML(w); err != nil {
			log.Printf("Failed to write KML response for run %s: %v", report.RunID, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, newCoverageResponse(report))
}

func newCoverageResponse(report *CoverageReport) coverageResponse {
	resp := coverageResponse{
		RunID:        report.RunID,
		Center:       report.Center,
		RadiusMeters: report.RadiusMeters,
		TargetCRS:    report.TargetCRS,
		PostalAreas:  report.PostalAreas,
		Heading:      report.Heading(),
		Results:      make([]coverageArea, 0, len(report.Areas)),
	}
	for _, a := range report.Areas {
		resp.Results = append(resp.Results, coverageArea{
			Result:  a.Result,
			Line:    FormatResult(a.Result),
			Outline: geo.EncodeOutline(a.Outline),
		})
	}
	if len(resp.Results) == 0 {
		resp.Message = NoResultsMessage
	}
	return resp
}

// statusFor maps error kinds to HTTP status codes
func statusFor(err error) int {
	switch geo.Kind(err) {
	case geo.KindInput, geo.KindParse:
		return http.StatusBadRequest
	case geo.KindProjection, geo.KindComputation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	kind := geo.Kind(err)
	if kind == geo.KindUnknown {
		slog.Error("Coverage request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
