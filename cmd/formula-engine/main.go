// Package main is the entry point for the formula-engine CLI and server.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gamekitlabs/formula-engine/pkg/api"
	"github.com/gamekitlabs/formula-engine/pkg/builtin"
	"github.com/gamekitlabs/formula-engine/pkg/envfile"
	"github.com/gamekitlabs/formula-engine/pkg/formula"
	"github.com/gamekitlabs/formula-engine/pkg/store"
	"github.com/gamekitlabs/formula-engine/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "formula-engine",
	Short: "Game-data formula evaluation engine",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the formula API server",
	RunE:  runServe,
}

var evalCmd = &cobra.Command{
	Use:   "eval <formula>",
	Short: "Evaluate a formula and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens <formula>",
	Short: "Print the token stream of a formula as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

var astCmd = &cobra.Command{
	Use:   "ast <formula>",
	Short: "Print the parsed AST of a formula as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runAST,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("formula-engine version {{.Version}}\n")

	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	serveCmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	serveCmd.Flags().String("env", "", "YAML environment file (env ENV_FILE)")
	serveCmd.Flags().String("formulas-dir", "", "Directory of .formula files to watch (env FORMULAS_DIR)")
	serveCmd.Flags().String("db", "", "SQLite database path for persistence (env DB_PATH)")

	evalCmd.Flags().String("env", "", "YAML environment file")
	rootCmd.AddCommand(serveCmd, evalCmd, tokensCmd, astCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	envFile := os.Getenv("ENV_FILE")
	if v, _ := cmd.Flags().GetString("env"); v != "" {
		envFile = v
	}

	formulasDir := os.Getenv("FORMULAS_DIR")
	if v, _ := cmd.Flags().GetString("formulas-dir"); v != "" {
		formulasDir = v
	}

	dbPath := os.Getenv("DB_PATH")
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		dbPath = v
	}

	env, err := loadEnv(envFile)
	if err != nil {
		return err
	}

	var s *store.Store
	if dbPath != "" {
		s, err = store.Open(dbPath)
		if err != nil {
			return err
		}
		log.Printf("Persisting formulas to %s", dbPath)
	} else {
		s = store.New()
	}
	defer s.Close()

	server := api.New(s, env)

	if formulasDir != "" {
		log.Printf("Watching formulas directory: %s", formulasDir)
		watcher, err := server.WatchDir(formulasDir)
		if err != nil {
			log.Printf("Warning: failed to watch formulas directory: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	ui := web.New(s)
	ui.Register(server.App())

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", host, port)
	log.Printf("Formula engine listening on %s", addr)
	return server.Listen(addr)
}

func runEval(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env")
	env, err := loadEnv(envFile)
	if err != nil {
		return err
	}

	result, err := formula.Interpret(args[0], env)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func runTokens(cmd *cobra.Command, args []string) error {
	tokens, err := formula.Tokenize(args[0])
	if err != nil {
		return err
	}

	out := make([]map[string]interface{}, 0, len(tokens))
	for _, tok := range tokens {
		m := map[string]interface{}{
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
	return printJSON(out)
}

func runAST(cmd *cobra.Command, args []string) error {
	node, err := formula.Parse(args[0])
	if err != nil {
		return err
	}
	return printJSON(formula.DumpAST(node))
}

// loadEnv builds the base evaluation environment: the stock builtins alone,
// or the given environment file (which includes them).
func loadEnv(path string) (*formula.Env, error) {
	if path == "" {
		return &formula.Env{Functions: builtin.NewRegistry().Functions()}, nil
	}
	return envfile.Load(path)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
