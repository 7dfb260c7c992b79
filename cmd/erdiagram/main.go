/*
main.go - Mermaid ER diagram generator

PURPOSE:
  Renders the data model declared in inventory.Schema() as a Mermaid
  erDiagram and writes it to a markdown file. Run it whenever the model
  changes so the docs stay in sync with the code.

USAGE:
  go run ./cmd/erdiagram -o docs/er-diagram.md
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shelfline/bookstore/inventory"
)

func main() {
	output := flag.String("o", "docs/er-diagram.md", "output file path")
	flag.Parse()

	doc := render()

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "erdiagram: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, []byte(doc), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "erdiagram: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *output)
}

func render() string {
	entities, relations := inventory.Schema()

	var b strings.Builder
	b.WriteString("# ER Diagram\n\n")
	b.WriteString("Generated by `go run ./cmd/erdiagram`. Do not edit by hand.\n\n")
	b.WriteString("```mermaid\nerDiagram\n")

	for _, rel := range relations {
		fmt.Fprintf(&b, "    %s %s %s : %q\n", rel.From, rel.Cardinality, rel.To, rel.Label)
	}
	b.WriteString("\n")

	for _, e := range entities {
		fmt.Fprintf(&b, "    %s {\n", e.Name)
		for _, f := range e.Fields {
			if f.Key != "" {
				fmt.Fprintf(&b, "        %s %s %s\n", f.Type, f.Name, f.Key)
			} else {
				fmt.Fprintf(&b, "        %s %s\n", f.Type, f.Name)
			}
		}
		b.WriteString("    }\n")
	}

	b.WriteString("```\n")
	return b.String()
}
