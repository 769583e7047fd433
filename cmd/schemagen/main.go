// Copyright 2025 The EncGuard Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// schemagen writes JSON schemas for the guard's report types so external
// tooling can validate serialized reports.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	encguard "github.com/encguard/go-encguard"
	"github.com/encguard/go-encguard/classify"
	"github.com/encguard/go-encguard/leakscan"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: schemagen <schema directory>")
		os.Exit(1)
	}

	outputDir := os.Args[1]
	if outputDir == "" {
		outputDir = "schemas"
	}

	if _, err := os.Stat(outputDir); os.IsNotExist(err) {
		if err := os.Mkdir(outputDir, 0755); err != nil {
			fmt.Printf("Error creating schema directory: %v\n", err)
			os.Exit(1)
		}
	}

	reflector := jsonschema.Reflector{
		BaseSchemaID:               "",
		Anonymous:                  false,
		AssignAnchor:               false,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
		DoNotReference:             true,
		ExpandedStruct:             true,
		IgnoredTypes:               []interface{}{},
		CommentMap:                 map[string]string{},
	}

	items := map[string]interface{}{
		"report":   &encguard.Report{},
		"evidence": &classify.Evidence{},
		"finding":  &leakscan.Finding{},
	}

	for name, item := range items {
		schema := reflector.Reflect(item)
		schema.Title = name

		bytes, err := schema.MarshalJSON()
		if err != nil {
			fmt.Printf("Error marshaling schema for %s: %v\n", name, err)
			os.Exit(1)
		}

		path := filepath.Join(outputDir, name+".json")
		if err := os.WriteFile(path, bytes, 0644); err != nil {
			fmt.Printf("Error writing schema for %s: %v\n", name, err)
			os.Exit(1)
		}
	}
}
