// Package api implements the REST API for managing and evaluating stored
// formulas, plus diagnostic endpoints exposing the token stream and AST.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gamekitlabs/formula-engine/pkg/envfile"
	"github.com/gamekitlabs/formula-engine/pkg/formula"
	"github.com/gamekitlabs/formula-engine/pkg/store"
)

// Server is the formula-engine API server.
type Server struct {
	app   *fiber.App
	store *store.Store
	env   *formula.Env // base environment shared by all evaluations
}

// New creates a new API server backed by the given store and base
// environment. The base environment may be nil.
func New(s *store.Store, env *formula.Env) *Server {
	srv := &Server{
		store: s,
		env:   env,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	// Formulas API
	app.Post("/v1/formulas", srv.createFormula)
	app.Get("/v1/formulas", srv.listFormulas)
	app.Get("/v1/formulas/:formula", srv.getFormula)
	app.Patch("/v1/formulas/:formula", srv.updateFormula)
	app.Delete("/v1/formulas/:formula", srv.deleteFormula)
	app.Post("/v1/formulas/:formula\\:evaluate", srv.evaluateFormula)

	// Ad-hoc evaluation and diagnostics
	app.Post("/v1/evaluate", srv.evaluateAdhoc)
	app.Post("/v1/tokenize", srv.tokenizeSource)
	app.Post("/v1/parse", srv.parseSource)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Formula Handlers ---

type createFormulaRequest struct {
	Source      string `json:"source"`
	Description string `json:"description"`
}

func (s *Server) createFormula(c *fiber.Ctx) error {
	formulaID := c.Query("formulaId")
	if formulaID == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "formulaId query parameter is required")
	}
	if !validFormulaID.MatchString(formulaID) {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "invalid formula ID '"+formulaID+"'")
	}

	var req createFormulaRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "invalid request body: "+err.Error())
	}
	if req.Source == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "source is required")
	}

	f, err := s.store.Create(formulaID, req.Source, req.Description)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(f)
}

func (s *Server) getFormula(c *fiber.Ctx) error {
	f, err := s.store.Get(c.Params("formula"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(f)
}

func (s *Server) listFormulas(c *fiber.Ctx) error {
	list := s.store.List()
	return c.JSON(fiber.Map{"formulas": list})
}

type updateFormulaRequest struct {
	Source      string `json:"source"`
	Description string `json:"description"`
}

func (s *Server) updateFormula(c *fiber.Ctx) error {
	var req updateFormulaRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "invalid request body: "+err.Error())
	}

	f, err := s.store.Update(c.Params("formula"), req.Source, req.Description)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(f)
}

func (s *Server) deleteFormula(c *fiber.Ctx) error {
	if err := s.store.Delete(c.Params("formula")); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{})
}

// --- Evaluation Handlers ---

type evaluateRequest struct {
	Source string             `json:"source"` // ad-hoc evaluation only
	Env    envfile.Definition `json:"env"`    // overlays the server environment
}

func (s *Server) evaluateFormula(c *fiber.Ctx) error {
	name := c.Params("formula")

	var req evaluateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, 400, "INVALID_ARGUMENT", "invalid request body: "+err.Error())
		}
	}

	result, err := s.store.Evaluate(name, s.requestEnv(&req))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"name": name, "result": result})
}

func (s *Server) evaluateAdhoc(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "invalid request body: "+err.Error())
	}
	if req.Source == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "source is required")
	}

	result, err := formula.Interpret(req.Source, s.requestEnv(&req))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"result": result})
}

// requestEnv overlays the request-supplied environment onto the server's
// base environment; request entries shadow base entries of the same name.
func (s *Server) requestEnv(req *evaluateRequest) *formula.Env {
	return envfile.Merge(s.env, req.Env.Env())
}

// --- Diagnostic Handlers ---

type sourceRequest struct {
	Source string `json:"source"`
}

func (s *Server) tokenizeSource(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "invalid request body: "+err.Error())
	}

	tokens, err := formula.Tokenize(req.Source)
	if err != nil {
		return storeError(c, err)
	}

	out := make([]fiber.Map, 0, len(tokens))
	for _, tok := range tokens {
		m := fiber.Map{
			"type": tok.Type.String(),
			"pos":  tok.Pos,
			"raw":  tok.Raw,
		}
		if tok.Text != "" {
			m["text"] = tok.Text
		}
		if tok.Type == formula.TokenNumber {
			m["value"] = tok.Val
		}
		out = append(out, m)
	}
	return c.JSON(fiber.Map{"tokens": out})
}

func (s *Server) parseSource(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "invalid request body: "+err.Error())
	}

	node, err := formula.Parse(req.Source)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"ast": formula.DumpAST(node)})
}

// --- Helpers ---

func errorJSON(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

// storeError maps store and formula errors onto API error responses.
func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, 404, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrExists):
		return errorJSON(c, 409, "ALREADY_EXISTS", err.Error())
	case formula.IsSyntaxError(err):
		return errorJSON(c, 400, "INVALID_ARGUMENT", err.Error())
	case formula.IsInterpreterError(err):
		return errorJSON(c, 400, "FAILED_PRECONDITION", err.Error())
	default:
		return errorJSON(c, 500, "INTERNAL", err.Error())
	}
}
