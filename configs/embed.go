// Package configs holds configuration templates embedded at build time.
//
// ProjectConfigTemplate is written by `brainlib config init` to
// .brainlib.yaml; `brainlib config init --user` writes it to the user
// config path instead. Every key is present with its default value so the
// file documents itself.
package configs

import _ "embed"

// ProjectConfigTemplate is the starter .brainlib.yaml.
//
//go:embed brainlib.example.yaml
var ProjectConfigTemplate string
