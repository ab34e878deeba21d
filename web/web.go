// Package web provides the embedded web UI: a formula playground and a
// browser for stored formulas.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gamekitlabs/formula-engine/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(s *store.Store) *Handler {
	return &Handler{
		store: s,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"truncate":   truncate,
			"hasPrefix":  strings.HasPrefix,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Parse templates fresh each time for the page-specific template.
	// This avoids the Go template issue where define blocks conflict across pages.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.playground)
	app.Get("/ui/formulas", h.formulaList)
	app.Get("/ui/formulas/:formula", h.formulaDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type playgroundContent struct {
	FormulaCount int
}

type formulaListContent struct {
	Formulas []*store.Formula
}

type formulaDetailContent struct {
	Formula *store.Formula
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) playground(c *fiber.Ctx) error {
	return h.render(c, "playground.html", "playground", playgroundContent{
		FormulaCount: len(h.store.List()),
	})
}

func (h *Handler) formulaList(c *fiber.Ctx) error {
	return h.render(c, "formulas.html", "formulas", formulaListContent{
		Formulas: h.store.List(),
	})
}

func (h *Handler) formulaDetail(c *fiber.Ctx) error {
	name := c.Params("formula")
	f, err := h.store.Get(name)
	if err != nil {
		return h.renderNotFound(c, fmt.Sprintf("Formula %q not found", name))
	}
	return h.render(c, "formula.html", "formulas", formulaDetailContent{Formula: f})
}

func (h *Handler) renderNotFound(c *fiber.Ctx, message string) error {
	c.Status(404)
	return h.render(c, "notfound.html", "", notFoundContent{Message: message})
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
