// Command bookbinder parses book reference macros and assembles documents
// from content graphs.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/Bookbinder/core/compose"
	"github.com/FocuswithJustin/Bookbinder/core/content"
	"github.com/FocuswithJustin/Bookbinder/core/graph"
	"github.com/FocuswithJustin/Bookbinder/core/ref"
	"github.com/FocuswithJustin/Bookbinder/core/sqlite"
	"github.com/FocuswithJustin/Bookbinder/internal/bundle"
	"github.com/FocuswithJustin/Bookbinder/internal/config"
	"github.com/FocuswithJustin/Bookbinder/internal/export"
	"github.com/FocuswithJustin/Bookbinder/internal/logging"
	"github.com/FocuswithJustin/Bookbinder/internal/store"
)

const version = "0.1.0"

// CLI defines the command-line interface for bookbinder.
type CLI struct {
	// Global flags
	Config    string `name:"config" short:"c" help:"Config file (YAML)" type:"existingfile" env:"BOOKBINDER_CONFIG"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error" env:"BOOKBINDER_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format: text, json" env:"BOOKBINDER_LOG_FORMAT"`

	Parse    ParseCmd    `cmd:"" help:"Parse book macros into references and tags"`
	Import   ImportCmd   `cmd:"" help:"Import node bundles into a database"`
	Resolve  ResolveCmd  `cmd:"" help:"Resolve a root node and print its tree"`
	Assemble AssembleCmd `cmd:"" help:"Assemble a document from a root node"`
	Snapshot SnapshotCmd `cmd:"" help:"Write every node reachable from a root as a bundle"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// app carries what every command needs once flags and config are merged.
type app struct {
	cfg    *config.Config
	stdout io.Writer
	ctx    context.Context
}

// SourceFlags selects where nodes are read from.
type SourceFlags struct {
	DB     string   `name:"db" help:"SQLite content database (default from config)" type:"path" xor:"source"`
	Bundle []string `name:"bundle" help:"Bundle files to load into memory instead of a database" type:"existingfile" xor:"source"`
}

// ParseCmd parses book macros.
type ParseCmd struct {
	Macros []string `arg:"" help:"Macros such as '[[book::John 3:16]]', or text containing them"`
	JSON   bool     `name:"json" help:"Output as JSON"`
}

// parsedMacro is one macro and the references it produced.
type parsedMacro struct {
	Macro      string            `json:"macro"`
	References []parsedReference `json:"references"`
}

type parsedReference struct {
	Reference ref.BookReference `json:"reference"`
	Tags      content.Tags      `json:"tags"`
}

func (c *ParseCmd) Run(a *app) error {
	p, err := a.cfg.Parser()
	if err != nil {
		return err
	}

	var out []parsedMacro
	for _, arg := range c.Macros {
		macros := ref.FindWikilinks(arg)
		if len(macros) == 0 && !strings.Contains(arg, "[[") {
			macros = []string{"[[book::" + arg + "]]"}
		}
		for _, m := range macros {
			pm := parsedMacro{Macro: m, References: []parsedReference{}}
			for _, r := range p.ParseWikilink(m) {
				pm.References = append(pm.References, parsedReference{Reference: r, Tags: r.Tags()})
			}
			out = append(out, pm)
		}
	}

	if c.JSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, pm := range out {
		fmt.Fprintln(a.stdout, pm.Macro)
		if len(pm.References) == 0 {
			fmt.Fprintln(a.stdout, "  (no references)")
		}
		for _, pr := range pm.References {
			fmt.Fprintf(a.stdout, "  %s\n", pr.Reference)
			fmt.Fprintf(a.stdout, "    tags: %s\n", formatTags(pr.Tags))
		}
	}
	return nil
}

func formatTags(tags content.Tags) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.Key + "=" + t.Value
	}
	return strings.Join(parts, " ")
}

// ImportCmd loads bundles into a database.
type ImportCmd struct {
	Bundles []string `arg:"" help:"Bundle files (.json, .xml, optionally .xz)" type:"existingfile"`
	DB      string   `name:"db" help:"SQLite content database (default from config)" type:"path"`
}

func (c *ImportCmd) Run(a *app) error {
	path := c.DB
	if path == "" {
		path = a.cfg.Database
	}
	s, err := store.Open(a.ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()

	imported := 0
	for _, b := range c.Bundles {
		nodes, err := bundle.Load(b)
		if err != nil {
			return err
		}
		if err := s.Put(a.ctx, nodes...); err != nil {
			return err
		}
		logging.InfoContext(a.ctx, "bundle_imported", "bundle", b, "nodes", len(nodes))
		imported += len(nodes)
	}

	total, err := s.Count(a.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Imported %d nodes from %d bundle(s) into %s (%d total)\n", imported, len(c.Bundles), path, total)
	return nil
}

// ResolveCmd prints the resolved tree of a root node.
type ResolveCmd struct {
	Root    string      `arg:"" help:"Root coordinate (kind:owner:d) or node id"`
	Source  SourceFlags `embed:""`
	JSON    bool        `name:"json" help:"Output the flattened tree as JSON"`
	NoColor bool        `name:"no-color" help:"Disable coloured output"`
}

// treeEntry is one line of the JSON tree output.
type treeEntry struct {
	Depth   int    `json:"depth"`
	ID      string `json:"id"`
	Ref     string `json:"ref"`
	Kind    string `json:"kind"`
	Heading string `json:"heading"`
	Branch  bool   `json:"branch,omitempty"`
}

func (c *ResolveCmd) Run(a *app) error {
	g, err := a.resolve(c.Source, c.Root)
	if err != nil {
		return err
	}

	if c.JSON {
		entries := []treeEntry{}
		g.Walk(func(depth int, ch graph.Child) bool {
			n := ch.Node()
			entries = append(entries, treeEntry{
				Depth:   depth,
				ID:      n.ID,
				Ref:     compose.NodeRef(n),
				Kind:    n.Kind.String(),
				Heading: compose.HeadingText(n),
				Branch:  ch.IsBranch(),
			})
			return true
		})
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	newTreePrinter(a.stdout, useColor(a.stdout, c.NoColor)).Print(g)
	return nil
}

// AssembleCmd assembles and exports a document.
type AssembleCmd struct {
	Root     string      `arg:"" help:"Root coordinate (kind:owner:d) or node id"`
	Source   SourceFlags `embed:""`
	Out      string      `name:"out" short:"o" help:"Output file (default stdout)" type:"path"`
	Format   string      `name:"format" short:"f" help:"Output format: adoc or md" default:"adoc"`
	Compress bool        `name:"compress" help:"xz-compress the output"`
}

func (c *AssembleCmd) Run(a *app) error {
	format, err := compose.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	g, err := a.resolve(c.Source, c.Root)
	if err != nil {
		return err
	}

	doc := compose.Assemble(compose.NodeRef(g.Root), g, true)
	res, err := export.Write(a.ctx, doc, export.Options{
		Format:   format,
		Path:     c.Out,
		Writer:   a.stdout,
		Compress: c.Compress,
	})
	if err != nil {
		return err
	}
	logging.InfoContext(a.ctx, "document_written",
		"export_id", res.ID,
		"digest", res.Digest,
		"bytes", res.Bytes,
		"written", res.Written,
		"path", res.Path,
		"sections", len(doc.Sections),
	)
	return nil
}

// SnapshotCmd writes a root and everything it reaches as a JSON bundle.
type SnapshotCmd struct {
	Root   string      `arg:"" help:"Root coordinate (kind:owner:d) or node id"`
	Source SourceFlags `embed:""`
	Out    string      `name:"out" short:"o" help:"Bundle file to write (.json or .json.xz)" type:"path" required:""`
}

func (c *SnapshotCmd) Run(a *app) error {
	g, err := a.resolve(c.Source, c.Root)
	if err != nil {
		return err
	}

	nodes := []*content.Node{g.Root}
	g.Walk(func(_ int, ch graph.Child) bool {
		nodes = append(nodes, ch.Node())
		return true
	})

	var buf bytes.Buffer
	if err := bundle.Encode(&buf, nodes); err != nil {
		return err
	}
	res, err := export.WriteData(c.Out, buf.Bytes(), strings.HasSuffix(strings.ToLower(c.Out), ".xz"))
	if err != nil {
		return err
	}
	logging.InfoContext(a.ctx, "snapshot_written", "export_id", res.ID, "digest", res.Digest, "nodes", len(nodes), "path", res.Path)
	fmt.Fprintf(a.stdout, "Wrote %d nodes to %s (blake3 %s)\n", len(nodes), res.Path, res.Digest)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(a.stdout, "bookbinder version %s\n", version)
	fmt.Fprintf(a.stdout, "sqlite driver: %s (%s, cgo=%t)\n", info.DriverName, info.Package, info.IsCGO)
	return nil
}

// openStore opens the node source selected by flags: bundles in memory, or
// the SQLite database.
func (a *app) openStore(src SourceFlags) (store.Store, error) {
	if len(src.Bundle) > 0 {
		mem := store.NewMemoryStore()
		for _, b := range src.Bundle {
			nodes, err := bundle.Load(b)
			if err != nil {
				return nil, err
			}
			if err := mem.Put(a.ctx, nodes...); err != nil {
				return nil, err
			}
		}
		return mem, nil
	}
	path := src.DB
	if path == "" {
		path = a.cfg.Database
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", path, err)
	}
	return store.OpenReadOnly(a.ctx, path)
}

// resolve looks up root and resolves its graph through a cached store.
func (a *app) resolve(src SourceFlags, root string) (*graph.ResolvedGraph, error) {
	s, err := a.openStore(src)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	ttl, err := a.cfg.CacheTTL()
	if err != nil {
		return nil, err
	}
	cached := store.NewCachedStore(s, ttl)

	node, err := store.Lookup(a.ctx, cached, root)
	if err != nil {
		return nil, err
	}

	opts := append(a.cfg.ResolverOptions(), graph.WithLogger(logging.LoggerFromContext(a.ctx)))
	start := time.Now()
	g, err := graph.NewResolver(cached, opts...).Resolve(a.ctx, node)
	if err != nil {
		return nil, err
	}
	hits, misses := cached.Stats()
	logging.ResolutionDone(a.ctx, root, g.Count(), time.Since(start), "cache_hits", hits, "cache_misses", misses)
	return g, nil
}

// newApp merges the config file with global flags and sets up logging.
func newApp(cli *CLI, stdout, stderr io.Writer) (*app, error) {
	cfg := config.Default()
	if cli.Config != "" {
		loaded, err := config.Load(cli.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logging.InitLoggerWriter(stderr, level, format)

	ctx := logging.WithRunID(context.Background(), logging.NewRunID())
	logging.DebugContext(ctx, "settings_loaded",
		"config", cli.Config,
		"database", cfg.Database,
		"cache_ttl", cfg.Cache.TTL,
		"concurrency", cfg.Resolver.Concurrency,
	)
	return &app{cfg: cfg, stdout: stdout, ctx: ctx}, nil
}

// newParser builds the kong parser writing to the given streams.
func newParser(cli *CLI, stdout, stderr io.Writer, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("bookbinder"),
		kong.Description("Book reference resolution and document assembly"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	}, opts...)
	return kong.New(cli, opts...)
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer, opts ...kong.Option) error {
	var cli CLI
	parser, err := newParser(&cli, stdout, stderr, opts...)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	a, err := newApp(&cli, stdout, stderr)
	if err != nil {
		return err
	}
	return ctx.Run(a)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	a, err := newApp(&cli, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(a)
	ctx.FatalIfErrorf(err)
}
