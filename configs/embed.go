// Package configs provides embedded configuration templates for codescope.
//
// Templates are embedded at build time with //go:embed so they ship in
// every distribution, source builds and binary releases alike.
//
// The templates are used by:
//   - cmd/codescope/cmd/init.go - creates .codescope.yaml in the project root
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults (internal/config NewConfig)
//  2. User config (~/.config/codescope/config.yaml)
//  3. Project config (.codescope.yaml)
//  4. Environment variables (CODESCOPE_*)
//
// To modify a template, edit the .yaml file in this directory and
// rebuild.
package configs

import _ "embed"

// ProjectConfigTemplate is the template for project-level configuration.
// Written by `codescope init` to .codescope.yaml in the project root.
// Contains project settings meant to be version-controlled: exclude
// patterns, index limits, search tool choice.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// UserConfigTemplate is the template for user/machine-level
// configuration at ~/.config/codescope/config.yaml: cache location,
// pinned search tool, log level.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
