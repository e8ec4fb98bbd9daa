package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/standardbeagle/semindex/internal/retriever"
)

// runSearch runs one C7-C8 query against an already-indexed project and
// prints the formatted context, the same text a retrieval-consuming LLM
// would receive.
func runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var root string
	creds := envCredentials()
	commonFlags(fs, &root, &creds)
	maxTokens := fs.Int("max-tokens", 0, "context token budget (0 = default)")
	rerank := fs.Bool("rerank", false, "enable LLM reranking (requires -llm-base-url)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: semindex search [flags] <query text>")
	}
	query := fs.Arg(0)

	proj, err := openProject(ctx, root, creds)
	if err != nil {
		return err
	}
	defer proj.Close()

	result := proj.retr.Query(ctx, retriever.Request{
		Text: query, MaxTokens: *maxTokens, EnableRerank: *rerank,
	})

	fmt.Printf("intent: %s (%d results)\n\n", result.Intent, len(result.Docs))
	fmt.Println(result.Context)
	return nil
}
