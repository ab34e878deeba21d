// Package integration exercises the full engine stack in process: the API
// server on top of the store, environment files, directory loading, SQLite
// persistence, and the web UI.
package integration

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/gamekitlabs/formula-engine/pkg/api"
	"github.com/gamekitlabs/formula-engine/pkg/envfile"
	"github.com/gamekitlabs/formula-engine/pkg/formula"
	"github.com/gamekitlabs/formula-engine/pkg/store"
	"github.com/gamekitlabs/formula-engine/web"
)

const gameDataYAML = `
identifiers:
  LEVEL: 35
  BASEDMG: 20
tables:
  stat:
    str: {perlvl: 3, cap: 400}
tables2q:
  skill:
    fireball:
      dmg: {base: 120, scale: 7}
`

func newEngine(t *testing.T, s *store.Store) *fiber.App {
	t.Helper()
	env, err := envfile.Parse([]byte(gameDataYAML))
	if err != nil {
		t.Fatalf("parsing game data: %v", err)
	}
	srv := api.New(s, env)
	web.New(s).Register(srv.App())
	return srv.App()
}

func request(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, raw
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decoding %q: %v", raw, err)
	}
	return m
}

// TestFormulaLifecycle walks a formula through create, evaluate, update,
// and delete over the REST API.
func TestFormulaLifecycle(t *testing.T) {
	app := newEngine(t, store.New())

	code, raw := request(t, app, "POST", "/v1/formulas?formulaId=fireball",
		`{"source": "skill('fireball'.dmg.base) + skill('fireball'.dmg.scale) * LEVEL"}`)
	if code != 200 {
		t.Fatalf("create: expected 200, got %d: %s", code, raw)
	}

	code, raw = request(t, app, "POST", "/v1/formulas/fireball:evaluate", "")
	if code != 200 {
		t.Fatalf("evaluate: expected 200, got %d: %s", code, raw)
	}
	if got := decode(t, raw)["result"]; got != float64(120+7*35) {
		t.Errorf("fireball = %v, want %d", got, 120+7*35)
	}

	// Overlay a higher level for one request only.
	code, raw = request(t, app, "POST", "/v1/formulas/fireball:evaluate",
		`{"env": {"identifiers": {"LEVEL": 100}}}`)
	if code != 200 {
		t.Fatalf("evaluate with overlay: expected 200, got %d: %s", code, raw)
	}
	if got := decode(t, raw)["result"]; got != float64(120+7*100) {
		t.Errorf("fireball at level 100 = %v, want %d", got, 120+7*100)
	}

	code, raw = request(t, app, "PATCH", "/v1/formulas/fireball", `{"source": "BASEDMG"}`)
	if code != 200 {
		t.Fatalf("update: expected 200, got %d: %s", code, raw)
	}
	_, raw = request(t, app, "POST", "/v1/formulas/fireball:evaluate", "")
	if got := decode(t, raw)["result"]; got != float64(20) {
		t.Errorf("after update = %v, want 20", got)
	}

	if code, _ = request(t, app, "DELETE", "/v1/formulas/fireball", ""); code != 200 {
		t.Fatalf("delete: expected 200, got %d", code)
	}
	if code, _ = request(t, app, "POST", "/v1/formulas/fireball:evaluate", ""); code != 404 {
		t.Fatalf("evaluate after delete: expected 404, got %d", code)
	}
}

// TestDirectoryLoadAndServe loads .formula files from disk and serves them
// through the API and the web UI.
func TestDirectoryLoadAndServe(t *testing.T) {
	env, err := envfile.Parse([]byte(gameDataYAML))
	if err != nil {
		t.Fatalf("parsing game data: %v", err)
	}
	s := store.New()
	srv := api.New(s, env)
	web.New(s).Register(srv.App())

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "strength.formula"),
		[]byte("min(stat('str'.perlvl) * LEVEL, stat('str'.cap))\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := srv.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	app := srv.App()
	code, raw := request(t, app, "POST", "/v1/formulas/strength:evaluate", "")
	if code != 200 {
		t.Fatalf("evaluate: expected 200, got %d: %s", code, raw)
	}
	if got := decode(t, raw)["result"]; got != float64(105) {
		t.Errorf("strength = %v, want 105", got)
	}

	code, raw = request(t, app, "GET", "/ui/formulas", "")
	if code != 200 {
		t.Fatalf("web UI: expected 200, got %d", code)
	}
	if !strings.Contains(string(raw), "strength") {
		t.Error("expected loaded formula on the web UI listing")
	}
}

// TestPersistenceAcrossRestart stores formulas in SQLite, reopens the
// database, and verifies the API still serves them.
func TestPersistenceAcrossRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "formulas.db")

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	app := newEngine(t, s)
	code, raw := request(t, app, "POST", "/v1/formulas?formulaId=crit",
		`{"source": "CRIT ? 2 : 1 * (BASEDMG + LEVEL)", "description": "crit multiplier"}`)
	if code != 200 {
		t.Fatalf("create: expected 200, got %d: %s", code, raw)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	reopened, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer reopened.Close()
	app = newEngine(t, reopened)

	code, raw = request(t, app, "GET", "/v1/formulas/crit", "")
	if code != 200 {
		t.Fatalf("get after restart: expected 200, got %d: %s", code, raw)
	}
	if got := decode(t, raw)["description"]; got != "crit multiplier" {
		t.Errorf("description = %v", got)
	}

	code, raw = request(t, app, "POST", "/v1/formulas/crit:evaluate",
		`{"env": {"identifiers": {"CRIT": 1}}}`)
	if code != 200 {
		t.Fatalf("evaluate after restart: expected 200, got %d: %s", code, raw)
	}
	if got := decode(t, raw)["result"]; got != float64(2*(20+35)) {
		t.Errorf("crit damage = %v, want %d", got, 2*(20+35))
	}
}

// TestDiagnosticsRoundTrip checks that the diagnostic endpoints agree with
// the library on a formula exercising every token kind.
func TestDiagnosticsRoundTrip(t *testing.T) {
	app := newEngine(t, store.New())
	source := `LEVEL >= 10 ? 1 : 0 * max(skill('fireball'.dmg.base), 2)`

	code, raw := request(t, app, "POST", "/v1/tokenize", `{"source": "`+source+`"}`)
	if code != 200 {
		t.Fatalf("tokenize: expected 200, got %d: %s", code, raw)
	}
	tokens, err := formula.Tokenize(source)
	if err != nil {
		t.Fatalf("library tokenize: %v", err)
	}
	got := decode(t, raw)["tokens"].([]any)
	if len(got) != len(tokens) {
		t.Errorf("token count = %d, want %d", len(got), len(tokens))
	}

	code, raw = request(t, app, "POST", "/v1/parse", `{"source": "`+source+`"}`)
	if code != 200 {
		t.Fatalf("parse: expected 200, got %d: %s", code, raw)
	}
	ast := decode(t, raw)["ast"].(map[string]any)
	if ast["type"] != "BinaryOp" {
		t.Errorf("root type = %v, want BinaryOp", ast["type"])
	}
}
