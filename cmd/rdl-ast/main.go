package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/robert-at-pretension-io/rdl-elaborate/internal/ast"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/parse"
	"github.com/robert-at-pretension-io/rdl-elaborate/internal/propschema"
)

func main() {
	output := flag.String("output", "", "write AST JSON to file (default: stdout)")
	flag.StringVar(output, "o", "", "write AST JSON to file (shorthand)")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rdl-ast [--output file] <file.rdl>")
		os.Exit(1)
	}

	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	root, err := parse.Parse(string(src), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	data, err := ast.MarshalAST(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling AST: %v\n", err)
		os.Exit(1)
	}

	schema, err := propschema.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading property schema: %v\n", err)
		os.Exit(1)
	}
	if err := schema.ValidateAST(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: AST JSON failed its own output contract: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
			os.Exit(1)
		}
		return
	}
	os.Stdout.Write(data)
	fmt.Println()
}
