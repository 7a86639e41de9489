package main

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dpup/postarit/internal/config"
	"github.com/dpup/postarit/internal/metrics"
	"github.com/dpup/postarit/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	coverageService, err := services.NewCoverageService(&appConfig.Coverage)
	if err != nil {
		slog.Error("Failed to create coverage service", "error", err)
		log.Fatal(err)
	}
	coverageHandler := services.NewCoverageHandler(coverageService, appConfig.Server.MaxUploadBytes)

	log.Printf("Postal code coverage server starting")
	log.Printf("Target reference: %s", appConfig.Coverage.TargetCRS)
	log.Printf("Default store: %s, radius %.0fm", appConfig.Coverage.DefaultCenter, appConfig.Coverage.DefaultRadiusMeters)

	// Server configuration (port, etc.) will be loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/coverage", coverageHandler.ServeHTTP),
		prefab.WithHTTPHandlerFunc("/metrics", promhttp.Handler().ServeHTTP),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system on top of the
// defaults. Configuration is loaded from prefab.yaml and environment variables
// with PF__ prefix.
func loadConfig() *config.Config {
	appConfig, err := config.Load(prefab.Config)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>postarit</title>
    <style>
        body { font-family: sans-serif; max-width: 40em; margin: 2em auto; line-height: 1.4; }
        label { display: block; margin: 0.8em 0 0.2em; }
    </style>
</head>
<body>
<h1>Postal code delivery coverage</h1>
<p>Upload postal code boundaries and a delivery area to list the postal codes
your deliveries cover.</p>
<form method="post" action="/api/v1/coverage" enctype="multipart/form-data">
    <label>Postal code boundaries (GeoJSON)</label>
    <input type="file" name="boundaries" accept=".geojson,.json" required>
    <label>Delivery area (KML)</label>
    <input type="file" name="delivery" accept=".kml" required>
    <label>Store location (lat, lon)</label>
    <input type="text" name="center" placeholder="60.450443736980425, 22.263339299434875">
    <label>Delivery radius (meters)</label>
    <input type="number" name="radius" min="1" placeholder="7500">
    <label>Output</label>
    <select name="format">
        <option value="json">JSON</option>
        <option value="kml">KML</option>
    </select>
    <p><button type="submit">Check coverage</button></p>
</form>
<p><a href="/metrics">/metrics</a></p>
</body>
</html>`

	w.Write([]byte(html))
}
