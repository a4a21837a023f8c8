// Command inkwell is the CLI for the Inkwell block-document editing engine.
// It provides commands for importing documents, simulating and applying edit
// batches, searching block text, running offline revisions, and serving the
// REST API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/quillcraft/inkwell/core/editop"
	"github.com/quillcraft/inkwell/core/index"
	"github.com/quillcraft/inkwell/core/revise"
	"github.com/quillcraft/inkwell/core/snapshot"
	"github.com/quillcraft/inkwell/internal/api"
	"github.com/quillcraft/inkwell/internal/config"
	"github.com/quillcraft/inkwell/internal/importer"
	"github.com/quillcraft/inkwell/internal/logging"
	"github.com/quillcraft/inkwell/internal/rewrite"
	"github.com/quillcraft/inkwell/internal/store"
)

const version = "0.2.0"

// CLI defines the command-line interface for inkwell.
var CLI struct {
	// Global flags
	DB        string `name:"db" help:"SQLite database path (overrides INKWELL_DB)"`
	Snapshots string `name:"snapshots" help:"Revision snapshot directory (overrides INKWELL_SNAPSHOTS)"`

	// Command groups (noun-first organization)
	Doc     DocGroup   `cmd:"" help:"Document operations (import, show, delete, history)"`
	Edit    EditGroup  `cmd:"" help:"Edit batch operations (simulate, apply)"`
	Search  SearchCmd  `cmd:"" help:"Search block text"`
	Revise  ReviseCmd  `cmd:"" help:"Run an offline multi-block revision"`
	Serve   ServeCmd   `cmd:"" help:"Start the REST API server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// DocGroup contains document lifecycle operations.
type DocGroup struct {
	Import  DocImportCmd  `cmd:"" help:"Import a document from an XHTML export"`
	Show    DocShowCmd    `cmd:"" help:"Print a document as JSON"`
	Delete  DocDeleteCmd  `cmd:"" help:"Delete a document and its index entries"`
	History DocHistoryCmd `cmd:"" help:"Recover a stored revision by version digest"`
}

// EditGroup contains edit batch operations.
type EditGroup struct {
	Simulate EditSimulateCmd `cmd:"" help:"Dry-run an edit batch and print the diff"`
	Apply    EditApplyCmd    `cmd:"" help:"Apply an edit batch atomically"`
}

// App holds the wired service shared by all commands.
type App struct {
	ctx context.Context
	svc *api.Service
	st  *store.SQLiteStore
	cfg *config.Config
}

func (a *App) Close() {
	a.st.Close()
}

// buildApp wires the store, index, snapshot store, and service.
func buildApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if CLI.DB != "" {
		cfg.DBPath = CLI.DB
	}
	if CLI.Snapshots != "" {
		cfg.SnapshotDir = CLI.Snapshots
	}
	logging.InitLogger(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	snaps, err := snapshot.NewStore(cfg.SnapshotDir)
	if err != nil {
		st.Close()
		return nil, err
	}
	style, err := cfg.StyleConfig()
	if err != nil {
		st.Close()
		return nil, err
	}

	svc := api.NewService(st, st, index.New(), rewrite.RuleBased{}, snaps, style)
	ctx := context.Background()
	if err := svc.Rebuild(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return &App{ctx: ctx, svc: svc, st: st, cfg: cfg}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readBatch(path, docID string) (*editop.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var batch editop.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("malformed batch file: %w", err)
	}
	batch.DocID = docID
	return &batch, nil
}

// DocImportCmd imports an XHTML export as a new document.
type DocImportCmd struct {
	ID   string `arg:"" help:"Document id"`
	File string `arg:"" help:"XHTML export file" type:"existingfile"`
}

func (c *DocImportCmd) Run(app *App) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	d, err := importer.ImportXHTML(c.ID, data)
	if err != nil {
		return err
	}
	if err := app.svc.CreateDocument(app.ctx, d); err != nil {
		return err
	}
	fmt.Printf("imported %s: %d blocks, version %s\n", d.ID, len(d.Blocks), d.BaseVersion)
	return nil
}

// DocShowCmd prints a document.
type DocShowCmd struct {
	ID string `arg:"" help:"Document id"`
}

func (c *DocShowCmd) Run(app *App) error {
	d, err := app.st.Load(app.ctx, c.ID)
	if err != nil {
		return err
	}
	return printJSON(d)
}

// DocDeleteCmd deletes a document.
type DocDeleteCmd struct {
	ID string `arg:"" help:"Document id"`
}

func (c *DocDeleteCmd) Run(app *App) error {
	return app.svc.DeleteDocument(app.ctx, c.ID)
}

// DocHistoryCmd recovers a stored revision.
type DocHistoryCmd struct {
	Version string `arg:"" help:"BaseVersion digest of the revision"`
}

func (c *DocHistoryCmd) Run(app *App) error {
	d, err := app.svc.Snapshots.LoadVersion(c.Version)
	if err != nil {
		return err
	}
	return printJSON(d)
}

// EditSimulateCmd dry-runs a batch.
type EditSimulateCmd struct {
	ID   string `arg:"" help:"Document id"`
	File string `arg:"" help:"Batch JSON file" type:"existingfile"`
}

func (c *EditSimulateCmd) Run(app *App) error {
	batch, err := readBatch(c.File, c.ID)
	if err != nil {
		return err
	}
	res, _, report, err := app.svc.Simulate(app.ctx, batch)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"result": res, "policy": report})
}

// EditApplyCmd applies a batch.
type EditApplyCmd struct {
	ID   string `arg:"" help:"Document id"`
	File string `arg:"" help:"Batch JSON file" type:"existingfile"`
}

func (c *EditApplyCmd) Run(app *App) error {
	batch, err := readBatch(c.File, c.ID)
	if err != nil {
		return err
	}
	res, err := app.svc.Apply(app.ctx, batch)
	if err != nil {
		return err
	}
	return printJSON(res)
}

// SearchCmd searches block text with the query language.
type SearchCmd struct {
	Query string `arg:"" help:"Search query (terms, \"phrases\", doc:<id>)"`
	Limit int    `help:"Maximum hits" default:"10"`
}

func (c *SearchCmd) Run(app *App) error {
	q, err := index.ParseQuery(c.Query)
	if err != nil {
		return err
	}
	return printJSON(app.svc.Index.SearchQuery(q, c.Limit))
}

// ReviseCmd runs the orchestrator with the built-in rule-based rewriter and
// prints the proposed batch and diff. With --apply the batch is committed.
type ReviseCmd struct {
	ID          string `arg:"" help:"Document id"`
	Intent      string `help:"Rewrite intent" default:"tighten"`
	Instruction string `help:"Extra or custom instruction"`
	MaxBlocks   int    `help:"Cap on blocks touched" default:"5"`
	Apply       bool   `help:"Apply the accepted ops instead of printing them"`
}

func (c *ReviseCmd) Run(app *App) error {
	res, pb, err := app.svc.Revise(app.ctx, c.ID, revise.Options{
		Intent:      revise.Intent(c.Intent),
		Instruction: c.Instruction,
		MaxBlocks:   c.MaxBlocks,
	})
	if err != nil {
		return err
	}
	if pb == nil {
		fmt.Println("no changes proposed")
		return nil
	}
	if !c.Apply {
		return printJSON(map[string]any{"pending": pb, "diff": res.Diff})
	}
	pb.AcceptAll()
	applied, err := app.svc.CommitPending(app.ctx, pb.ID)
	if err != nil {
		return err
	}
	return printJSON(applied)
}

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Port int `help:"Listen port (overrides INKWELL_PORT)"`
}

func (c *ServeCmd) Run(app *App) error {
	port := app.cfg.Port
	if c.Port != 0 {
		port = c.Port
	}
	return app.svc.Start(port)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	fmt.Printf("inkwell %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("inkwell"),
		kong.Description("Block-document editing engine"),
		kong.UsageOnError(),
	)

	app, err := buildApp()
	if err != nil {
		logging.Error("startup failed", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	if err := ctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
