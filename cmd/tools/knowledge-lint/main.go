// cmd/tools/knowledge-lint/main.go
//
// knowledge-lint checks a knowledge directory against the bundle registry:
// every required bundle must exist, parse as JSON, and satisfy its schema.
// Exit code 1 means the directory is not deployable.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"

	"lubebot/pkg/registry"
)

func main() {
	registryPath := flag.String("registry", "configs/knowledge-registry.json", "Path to the bundle registry")
	knowledgeDir := flag.String("dir", "configs/knowledge", "Knowledge directory to lint")
	flag.Parse()

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error: cannot load registry %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	problems := 0
	for _, bundle := range reg.Bundles {
		path := filepath.Join(*knowledgeDir, filepath.FromSlash(bundle.Name)+".json")

		raw, err := os.ReadFile(path)
		if err != nil {
			if bundle.Required {
				fmt.Printf("MISSING  %s (%s)\n", bundle.Name, bundle.Description)
				problems++
			} else {
				fmt.Printf("skipped  %s (optional, not present)\n", bundle.Name)
			}
			continue
		}

		if !json.Valid(raw) {
			fmt.Printf("INVALID  %s: not valid JSON\n", bundle.Name)
			problems++
			continue
		}

		if len(bundle.Schema) > 0 {
			schemaLoader := gojsonschema.NewGoLoader(bundle.Schema)
			docLoader := gojsonschema.NewBytesLoader(raw)
			result, err := gojsonschema.Validate(schemaLoader, docLoader)
			if err != nil {
				fmt.Printf("ERROR    %s: schema validation failed: %v\n", bundle.Name, err)
				problems++
				continue
			}
			if !result.Valid() {
				fmt.Printf("INVALID  %s:\n", bundle.Name)
				for _, desc := range result.Errors() {
					fmt.Printf("         - %s\n", desc)
				}
				problems++
				continue
			}
		}

		fmt.Printf("ok       %s\n", bundle.Name)
	}

	if problems > 0 {
		fmt.Printf("\n%d problem(s) found in %s\n", problems, *knowledgeDir)
		os.Exit(1)
	}
	fmt.Printf("\nAll bundles in %s are valid.\n", *knowledgeDir)
}
