// =============================================================================
// RDL Elaborator - Main Entry Point
// =============================================================================
//
// THE PIPELINE:
//   1. parse reads SystemRDL source text into a syntax tree (internal/parse)
//   2. comptype.RegisterPass1 registers every named component type
//   3. elaborate.Elaborate instantiates the top component and assigns
//      addresses, binding parameters and resolving property inheritance
//   4. validate synthesizes reserved fields and checks address/bit overlap
//   5. the elaborated model is written as JSON (-j/--json) or summarized
//
// Diagnostics accumulate across the whole run; the tool reports every one it
// finds rather than stopping at the first.
// =============================================================================
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/config"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/elaborate"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/node"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/parse"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/propschema"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var emitJSON bool
	var jsonPath string
	var srcPath string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-h" || args[i] == "--help":
			printUsage()
			return
		case args[i] == "-j" || args[i] == "--json":
			emitJSON = true
		case strings.HasPrefix(args[i], "--json="):
			emitJSON = true
			jsonPath = strings.TrimPrefix(args[i], "--json=")
		case strings.HasPrefix(args[i], "-"):
			fmt.Fprintf(os.Stderr, "unknown option %q\n", args[i])
			os.Exit(1)
		default:
			srcPath = args[i]
		}
	}

	if srcPath == "" {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPathFor(srcPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.EmitJSON {
		emitJSON = true
	}
	if jsonPath == "" {
		jsonPath = cfg.JSONOutputPath
	}
	if emitJSON && jsonPath == "" {
		jsonPath = strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath)) + "_elaborated.json"
	}

	run(srcPath, emitJSON, jsonPath)
}

func configPathFor(srcPath string) string {
	return filepath.Join(filepath.Dir(srcPath), "rdl-elaborate.json")
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: rdl-elaborate [options] <file.rdl>

Options:
  -j, --json           write the elaborated model as JSON to <input-stem>_elaborated.json
  --json=<file>        write the elaborated model as JSON to <file>
  -h, --help           show this help message`)
}

func run(srcPath string, emitJSON bool, jsonPath string) {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	root, err := parse.Parse(string(src), srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	schema, err := propschema.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading property schema: %v\n", err)
		os.Exit(1)
	}

	el := elaborate.New(schema)
	model, diags := el.Elaborate(root)

	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s\n", d.String())
	}
	if diags.HasErrors() {
		os.Exit(1)
	}

	if emitJSON {
		data, err := node.MarshalModel(model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling model: %v\n", err)
			os.Exit(1)
		}
		if err := schema.ValidateModel(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error: elaborated model failed its own output contract: %v\n", err)
			os.Exit(1)
		}
		if jsonPath != "" {
			if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", jsonPath, err)
				os.Exit(1)
			}
		} else {
			os.Stdout.Write(data)
			fmt.Println()
		}
		return
	}

	fmt.Printf("%s %s: elaborated %d top-level children, 0 errors\n", model.Kind, model.InstanceName, len(model.Children))
}
