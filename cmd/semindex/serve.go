package main

import (
	"context"
	"flag"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/semindex/internal/mcpserver"
)

// runServe opens a project and blocks serving the MCP server over stdio,
// the long-running counterpart to watch's file-driven re-indexing —
// mirroring main_server.go's one-shot-server-process framing, but over
// the stdio transport MCP hosts expect rather than a Unix socket.
func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var root string
	creds := envCredentials()
	commonFlags(fs, &root, &creds)
	if err := fs.Parse(args); err != nil {
		return err
	}

	proj, err := openProject(ctx, root, creds)
	if err != nil {
		return err
	}
	defer proj.Close()

	server := mcpserver.New(&mcp.Implementation{
		Name:    "semindex",
		Version: "0.1.0",
	}, mcpserver.Deps{
		Retriever: proj.retr,
		RepoMap:   proj.repoGen,
		Symbols:   proj.symbols,
		Analysis:  proj.analysisEngine,
	})

	return server.Run(ctx, &mcp.StdioTransport{})
}
