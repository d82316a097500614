package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/clinicals/clinicals/internal/config"
	"github.com/clinicals/clinicals/internal/domain/clinicaldata"
	"github.com/clinicals/clinicals/internal/domain/patient"
	"github.com/clinicals/clinicals/internal/platform/db"
	"github.com/clinicals/clinicals/internal/platform/middleware"
	"github.com/clinicals/clinicals/internal/platform/validation"
)

type services struct {
	patients     *patient.Service
	clinicalData *clinicaldata.Service
}

func newServices(q db.Querier, logger zerolog.Logger) *services {
	patientSvc := patient.NewService(patient.NewPatientRepoPG(q))
	return &services{
		patients:     patientSvc,
		clinicalData: clinicaldata.NewService(clinicaldata.NewClinicalDataRepoPG(q), patientSvc, logger),
	}
}

// newServer wires middleware, health, metrics and the API routes. pool may
// be nil in tests that never hit /health/db.
func newServer(cfg *config.Config, pool *pgxpool.Pool, svcs *services, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewHTTPMetrics(reg)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{echo.HeaderLocation, middleware.RequestIDHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}
	e.GET("/metrics", metrics.Handler())

	api := e.Group("/api")
	patient.NewHandler(svcs.patients).RegisterRoutes(api)
	clinicaldata.NewHandler(svcs.clinicalData).RegisterRoutes(api)

	return e
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}
