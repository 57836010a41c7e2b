// Package report collects statistics for a catalog sync run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/orgatlas/orgatlas/internal/catalog"
	"github.com/orgatlas/orgatlas/internal/orgchart"
)

// SyncReport collects statistics for a full sync run.
type SyncReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Catalog    CatalogMetrics `json:"catalog"`
	Chart      ChartMetrics   `json:"chart"`
	Stages     []StageMetrics `json:"stages"`
	Errors     []string       `json:"errors,omitempty"`
}

type CatalogMetrics struct {
	BaseURL     string         `json:"base_url"`
	Kinds       []string       `json:"kinds"`
	EntityCount int            `json:"entity_count"`
	KindCounts  map[string]int `json:"kind_counts"`
}

type ChartMetrics struct {
	NodeCount        int `json:"node_count"`
	EdgeCount        int `json:"edge_count"`
	PlaceholderCount int `json:"placeholder_count"`
	MaxDepth         int `json:"max_depth"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
	Items    int           `json:"items"`
	Errors   int           `json:"errors"`
}

// New starts tracking a sync run.
func New() *SyncReport {
	return &SyncReport{StartedAt: time.Now()}
}

// CollectCatalog computes catalog-side metrics from the fetched entities.
func (r *SyncReport) CollectCatalog(baseURL string, kinds []string, entities []catalog.Entity) {
	r.Catalog.BaseURL = baseURL
	r.Catalog.Kinds = kinds
	r.Catalog.EntityCount = len(entities)
	r.Catalog.KindCounts = make(map[string]int)
	for _, e := range entities {
		r.Catalog.KindCounts[e.Kind]++
	}
}

// CollectChart computes chart-side metrics from the built graph.
func (r *SyncReport) CollectChart(g *orgchart.Graph) {
	r.Chart.NodeCount = g.Stats.TotalNodes
	r.Chart.EdgeCount = g.Stats.TotalEdges
	r.Chart.PlaceholderCount = g.Stats.PlaceholderCount
	r.Chart.MaxDepth = g.Stats.MaxDepth
}

// AddStage records a single stage's timing and status.
func (r *SyncReport) AddStage(name string, d time.Duration, items, errCount int) {
	r.Stages = append(r.Stages, StageMetrics{
		Name:     name,
		Duration: d,
		Items:    items,
		Errors:   errCount,
	})
}

// Finish marks the sync as complete.
func (r *SyncReport) Finish(errs []string) {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
	r.Errors = errs
}

// Succeeded reports whether the sync completed without errors.
func (r *SyncReport) Succeeded() bool {
	return len(r.Errors) == 0
}

// PrintSummary writes a human-readable summary.
func (r *SyncReport) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║        ORGATLAS SYNC REPORT          ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ CATALOG (%s)\n", r.Catalog.BaseURL)
	fmt.Fprintf(w, "║   Entities:    %d\n", r.Catalog.EntityCount)
	for kind, count := range r.Catalog.KindCounts {
		fmt.Fprintf(w, "║     %-10s %d\n", kind+":", count)
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ CHART\n")
	fmt.Fprintf(w, "║   Nodes:        %d\n", r.Chart.NodeCount)
	fmt.Fprintf(w, "║   Edges:        %d\n", r.Chart.EdgeCount)
	fmt.Fprintf(w, "║   Placeholders: %d\n", r.Chart.PlaceholderCount)
	fmt.Fprintf(w, "║   Max Depth:    %d\n", r.Chart.MaxDepth)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range r.Stages {
		status := "OK"
		if s.Errors > 0 {
			status = fmt.Sprintf("%d errors", s.Errors)
		}
		fmt.Fprintf(w, "║   %-14s %8s  %4d items  %s\n", s.Name, s.Duration.Round(time.Millisecond), s.Items, status)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the report as formatted JSON.
func (r *SyncReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
