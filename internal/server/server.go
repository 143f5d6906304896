// Package server exposes the latest stored reports over HTTP for the report
// consumer.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/observability"
	"bdo-market-etl/internal/storage"
)

// reportRow is the JSON shape served to the report consumer.
type reportRow struct {
	AnalyzeTime time.Time `json:"analyzeTime"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Enhance     int       `json:"enhance"`
	Price       int64     `json:"price"`
	Profit      float64   `json:"profit"`
	Rate        float64   `json:"rate"`
	Stock       int64     `json:"stock"`
}

// Server serves report rows.
type Server struct {
	reports storage.ReportStore
	logger  *slog.Logger
}

// New creates a report server.
func New(reports storage.ReportStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{reports: reports, logger: logger}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	r.GET("/report/:type", s.getReport)

	return r
}

// getReport returns the most recent hour bucket of the allow-listed report
// type, ordered by rate descending.
func (s *Server) getReport(c *gin.Context) {
	reportType := c.Param("type")
	table, err := storage.ReportTable(reportType)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown report type"})
		return
	}

	rows, err := s.reports.Latest(c.Request.Context(), table)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		s.logger.Error("report read failed", "table", table, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report read failed"})
		return
	}

	out := make([]reportRow, len(rows))
	for i, r := range rows {
		out[i] = toReportRow(r)
	}
	c.JSON(http.StatusOK, gin.H{
		"reportTime": rows[0].AnalyzeTime,
		"rows":       out,
	})
}

func toReportRow(r *domain.ProfitReportRow) reportRow {
	return reportRow{
		AnalyzeTime: r.AnalyzeTime,
		Category:    string(r.Category),
		Name:        r.Name,
		Enhance:     r.Tier,
		Price:       r.Price,
		Profit:      r.Profit,
		Rate:        r.Rate,
		Stock:       r.Stock,
	}
}
