/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ManifestSchema is the JSON Schema the siteplan.json manifest is written
// against. Embedded so validation works without an installed copy.
//
//go:embed siteplan.schema.json
var ManifestSchema []byte

// ValidateManifest checks raw manifest bytes against the embedded schema.
// Returns nil when the document conforms; otherwise an error listing every
// violation. Open tolerates schema drift (it normalizes instead), so this is
// only called on explicit request (CLI save --strict, tests).
func ValidateManifest(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(ManifestSchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("manifest violates schema:")
	for _, e := range result.Errors() {
		sb.WriteString("\n  ")
		sb.WriteString(e.String())
	}
	return fmt.Errorf("%s", sb.String())
}
