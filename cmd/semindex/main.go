// Command semindex is the thin host process: one-shot CLI commands (index,
// search) plus long-running watch and MCP server (serve) paths, mirroring the
// teacher's main.go/main_server.go split. Argument parsing is
// deliberately minimal stdlib flag.FlagSet usage, not a CLI framework —
// parsing flags is an external collaborator's job, not this engine's.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/standardbeagle/semindex/internal/debug"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "index":
		err = runIndex(ctx, args)
	case "watch":
		err = runWatch(ctx, args)
	case "search":
		err = runSearch(ctx, args)
	case "serve":
		err = runServe(ctx, args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "semindex: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "semindex:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: semindex <command> [flags]

commands:
  index   run a one-shot ingestion pass over a project root
  watch   index once, then keep re-indexing on file changes until interrupted
  search  query the indexed project and print formatted context
  serve   run the MCP server over stdio

Run "semindex <command> -h" for its flags.
`)
}

// commonFlags registers the flags every subcommand shares: the project
// root and the optional remote embedding/LLM credentials.
func commonFlags(fs *flag.FlagSet, root *string, creds *credentials) {
	fs.StringVar(root, "root", ".", "project root to operate on")
	fs.StringVar(&creds.EmbedBaseURL, "embed-base-url", creds.EmbedBaseURL, "OpenAI-compatible embeddings endpoint (empty = deterministic local embedder)")
	fs.StringVar(&creds.EmbedAPIKey, "embed-api-key", creds.EmbedAPIKey, "embeddings API key")
	fs.StringVar(&creds.EmbedModel, "embed-model", creds.EmbedModel, "embeddings model name")
	fs.StringVar(&creds.LLMBaseURL, "llm-base-url", creds.LLMBaseURL, "OpenAI-compatible chat-completions endpoint (empty = rule-based router only, enrichment disabled)")
	fs.StringVar(&creds.LLMAPIKey, "llm-api-key", creds.LLMAPIKey, "LLM API key")
	fs.StringVar(&creds.LLMModel, "llm-model", creds.LLMModel, "LLM model name")
	fs.BoolVar(&creds.EnableMetrics, "metrics", creds.EnableMetrics, "enable Prometheus metrics collection")
	if debug.Enabled() {
		debug.Log("cli", "flags registered for %s", fs.Name())
	}
}
