package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// runIndex runs one Ingest pass and reports the result, matching the
// teacher's default (non-daemon) `lci` invocation.
func runIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
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

	if err := proj.lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = proj.lock.Release() }()

	result, err := proj.pipeline.Ingest(ctx, proj.cfg.Project.Root)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("indexed %s: +%d new, ~%d modified, -%d deleted, %d unchanged, %d parse errors, %d symbols resolved\n",
		proj.cfg.Project.Root, result.New, result.Modified, result.Deleted, result.Unchanged,
		result.ParseErrors, result.SymbolsResolved)
	return nil
}

// runWatch indexes once, then keeps the project watcher running until
// SIGINT/SIGTERM, mirroring main_server.go's signal-driven shutdown.
func runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
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

	if err := proj.lock.Acquire(); err != nil {
		return err
	}
	result, err := proj.pipeline.Ingest(ctx, proj.cfg.Project.Root)
	if err != nil {
		_ = proj.lock.Release()
		return fmt.Errorf("initial ingest: %w", err)
	}
	fmt.Printf("initial index: +%d ~%d -%d (%d unchanged)\n", result.New, result.Modified, result.Deleted, result.Unchanged)

	// Release the lock before handing re-index runs to the watcher's own
	// callbacks, which reacquire it per debounce-window flush.
	_ = proj.lock.Release()

	w, err := proj.startWatcher(proj.cfg.Project.Root)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", proj.cfg.Project.Root)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nshutting down")
	return nil
}
