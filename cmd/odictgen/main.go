// Command odictgen compiles an object-dictionary spec into its C, Python,
// JSON and PDF artifacts.
//
// # Usage
//
//	odictgen generate <input.yaml> <output_dir> [--name NAME] [--target c,py,db,doc]
//	odictgen gen-schema <output.json>
//
// Omitting --target generates every backend. --name defaults to "OD" and
// also selects the root Python client class name.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fvsolutions-common/odin/internal/backend"
	"github.com/fvsolutions-common/odin/internal/codegen/c"
	"github.com/fvsolutions-common/odin/internal/codegen/db"
	"github.com/fvsolutions-common/odin/internal/codegen/doc"
	"github.com/fvsolutions-common/odin/internal/codegen/host"
	"github.com/fvsolutions-common/odin/internal/collection"
	"github.com/fvsolutions-common/odin/internal/resolve"
	"github.com/fvsolutions-common/odin/internal/specfile"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usageError("missing subcommand")
	}

	switch args[0] {
	case "generate":
		return runGenerate(args[1:])
	case "gen-schema":
		return runGenSchema(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown subcommand %q", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\n\nusage:\n  odictgen generate <input.yaml> <output_dir> [--name NAME] [--target c,py,db,doc]\n  odictgen gen-schema <output.json>", msg)
}

var allTargets = []string{"c", "py", "db", "doc"}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	name := fs.String("name", "OD", "object dictionary name")
	target := fs.String("target", "", "comma-separated backend targets (c,py,db,doc); default all")
	// flag stops at the first positional argument, so parse repeatedly to
	// accept flags before, between or after <input.yaml> and <output_dir>.
	var rest []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		rest = append(rest, args[0])
		args = args[1:]
	}
	if len(rest) != 2 {
		return usageError("generate requires <input.yaml> and <output_dir>")
	}
	input, outDir := rest[0], rest[1]

	if !strings.HasSuffix(input, ".yaml") {
		return fmt.Errorf("input file %q must end in .yaml", input)
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("input file %q does not exist", input)
	}
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		return fmt.Errorf("output directory %q does not exist", outDir)
	}

	targets := allTargets
	if *target != "" {
		targets = strings.Split(*target, ",")
	}
	for _, t := range targets {
		valid := false
		for _, at := range allTargets {
			if t == at {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown target %q", t)
		}
	}

	ctx, err := buildContext(input)
	if err != nil {
		return err
	}

	// Each backend is a pure read of the frozen context writing to its own
	// output file, so the four emitters run as independent goroutines
	// joined by errgroup rather than sequentially.
	var g errgroup.Group
	for _, t := range targets {
		switch t {
		case "c":
			g.Go(func() error { return c.Generate(ctx, outDir, *name) })
		case "py":
			g.Go(func() error { return host.Generate(ctx, outDir, *name, strings.ToLower(*name)) })
		case "db":
			g.Go(func() error { return db.Generate(ctx, outDir, *name) })
		case "doc":
			g.Go(func() error { return doc.Generate(ctx, outDir, *name, "") })
		}
	}
	return g.Wait()
}

func runGenSchema(args []string) error {
	fs := flag.NewFlagSet("gen-schema", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return usageError("gen-schema requires <output.json>")
	}
	out := rest[0]

	schema := specfile.GenerateSchema()
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}

// buildContext runs the full load -> build -> resolve -> collections ->
// freeze pipeline for a spec file.
func buildContext(input string) (*backend.Context, error) {
	spec, err := specfile.Load(input, false)
	if err != nil {
		return nil, err
	}
	built, err := specfile.Build(spec)
	if err != nil {
		return nil, err
	}
	resolved, err := resolve.Resolve(built.Root, built.Types, built.RootAccess, built.RootGroupOrder, built.Names)
	if err != nil {
		return nil, err
	}
	collections := collection.Build(resolved.Root, built.Collections)
	return backend.Freeze(built.Config.Name, built.Description, resolved, collections), nil
}
