package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"insightdash/internal/dashboard"
	"insightdash/internal/domain"
	"insightdash/internal/insights"
	"insightdash/internal/render"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxHistoryLimit = 200

func (s *Server) viewFromRequest(w http.ResponseWriter, r *http.Request) (dashboard.View, bool) {
	view, err := dashboard.ParseView(mux.Vars(r)["view"])
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return view, true
}

func (s *Server) handleViewPage(w http.ResponseWriter, r *http.Request) {
	view, ok := s.viewFromRequest(w, r)
	if !ok {
		return
	}
	s.renderPage(w, view, nil)
}

func (s *Server) handleViewInsights(w http.ResponseWriter, r *http.Request) {
	view, ok := s.viewFromRequest(w, r)
	if !ok {
		return
	}
	res := s.generator.GenerateFor(r.Context(), domain.SampleDataset(), view.Title(), view.String(), insights.SurfaceWeb)
	s.renderPage(w, view, &insightPanel{Text: res.Display(), Failed: !res.OK()})
}

func (s *Server) renderPage(w http.ResponseWriter, view dashboard.View, insight *insightPanel) {
	charts, err := dashboard.Select(view, domain.SampleDataset())
	if err != nil {
		s.logger.Error("selecting charts", zap.String("view", view.String()), zap.Error(err))
		http.Error(w, "failed to build view", http.StatusInternalServerError)
		return
	}

	data := pageData{
		AppTitle: s.appTitle,
		View:     view.String(),
		Slug:     view.Slug(),
		Heading:  view.Heading(),
		Columns:  view.Columns(),
		Insight:  insight,
	}
	for _, v := range dashboard.Views {
		data.Nav = append(data.Nav, navItem{Name: v.String(), Slug: v.Slug(), Active: v == view})
	}
	for _, c := range charts {
		svg, err := render.Bytes(c, render.FormatSVG, render.Options{})
		if err != nil {
			s.logger.Error("rendering chart", zap.String("chart", c.Spec.ID), zap.Error(err))
			http.Error(w, "failed to render chart", http.StatusInternalServerError)
			return
		}
		data.Charts = append(data.Charts, chartPanel{ID: c.Spec.ID, SVG: template.HTML(svg)})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("executing page template", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	spec, ok := dashboard.SpecByID(vars["chart"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	format, err := render.ParseFormat(vars["format"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	opts := render.Options{}
	if opts.Width, err = intParam(r, "width", 0); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if opts.Height, err = intParam(r, "height", 0); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	chart, err := dashboard.Bind(spec, domain.SampleDataset())
	if err != nil {
		s.logger.Error("binding chart", zap.String("chart", spec.ID), zap.Error(err))
		http.Error(w, "failed to bind chart", http.StatusInternalServerError)
		return
	}
	img, err := render.Bytes(chart, format, opts)
	if err != nil {
		s.logger.Error("rendering chart", zap.String("chart", spec.ID), zap.Error(err))
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(img)
}

type viewSummary struct {
	Name   string   `json:"name"`
	Slug   string   `json:"slug"`
	Title  string   `json:"title"`
	Charts []string `json:"charts"`
}

func (s *Server) handleAPIViews(w http.ResponseWriter, r *http.Request) {
	out := make([]viewSummary, 0, len(dashboard.Views))
	for _, v := range dashboard.Views {
		out = append(out, viewSummary{Name: v.String(), Slug: v.Slug(), Title: v.Title(), Charts: dashboard.ChartIDs(v)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPICharts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, dashboard.Specs())
}

type viewResponse struct {
	Name    string            `json:"name"`
	Slug    string            `json:"slug"`
	Title   string            `json:"title"`
	Columns int               `json:"columns"`
	Charts  []dashboard.Chart `json:"charts"`
}

func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	view, err := dashboard.ParseView(mux.Vars(r)["view"])
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	charts, err := dashboard.Select(view, domain.SampleDataset())
	if err != nil {
		s.logger.Error("selecting charts", zap.String("view", view.String()), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to build view"})
		return
	}
	s.writeJSON(w, http.StatusOK, viewResponse{
		Name:    view.String(),
		Slug:    view.Slug(),
		Title:   view.Title(),
		Columns: view.Columns(),
		Charts:  charts,
	})
}

type insightResponse struct {
	RunID    string            `json:"run_id"`
	View     string            `json:"view"`
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	Failure  *insights.Failure `json:"failure,omitempty"`
	Display  string            `json:"display"`
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
}

func (s *Server) handleAPIInsights(w http.ResponseWriter, r *http.Request) {
	view, err := dashboard.ParseView(mux.Vars(r)["view"])
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	res := s.generator.GenerateFor(r.Context(), domain.SampleDataset(), view.Title(), view.String(), insights.SurfaceAPI)
	s.writeJSON(w, http.StatusOK, insightResponse{
		RunID:    res.RunID,
		View:     view.String(),
		Title:    res.Title,
		Text:     res.Text,
		Failure:  res.Failure,
		Display:  res.Display(),
		Provider: res.Provider,
		Model:    res.Model,
	})
}

type runResponse struct {
	ID          string `json:"id"`
	View        string `json:"view"`
	Title       string `json:"title"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Outcome     string `json:"outcome"`
	Detail      string `json:"detail,omitempty"`
	Tokens      int64  `json:"tokens"`
	DurationMS  int64  `json:"duration_ms"`
	Surface     string `json:"surface"`
	GeneratedAt string `json:"generated_at"`
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "insight history is disabled"})
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	runs, err := s.history.ListRecentInsightRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing insight runs", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to read history"})
		return
	}
	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse{
			ID:          run.ID,
			View:        run.View,
			Title:       run.Title,
			Provider:    run.LLMProvider,
			Model:       run.LLMModel,
			Outcome:     run.Outcome,
			Detail:      run.Detail,
			Tokens:      run.InputTokens + run.OutputTokens,
			DurationMS:  run.DurationMillis,
			Surface:     run.Surface,
			GeneratedAt: run.GeneratedAt.UTC().Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding json response", zap.Error(err))
	}
}

var errBadParam = errors.New("invalid query parameter")

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w %s=%q", errBadParam, name, raw)
	}
	return n, nil
}
