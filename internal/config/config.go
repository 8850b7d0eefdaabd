// Package config loads the semanteco configuration from CUE.
//
// A configuration names the SPARQL endpoint, the extensions to register in
// order, and optionally the SQLite execution log:
//
//	endpoint: url: "http://localhost:3030/semanteco/sparql"
//	extensions: ["sites", "water", "air"]
//	store: "semanteco.db"
//
// Every configuration is unified with the embedded #Config schema, which
// supplies defaults and rejects unknown fields.
package config

import (
	_ "embed"
	"time"
)

//go:embed schema.cue
var schemaSource []byte

// Config is a validated configuration.
type Config struct {
	Endpoint          Endpoint
	Extensions        []string
	Store             string
	StrictComposition bool
}

// Endpoint describes the remote SPARQL endpoint.
type Endpoint struct {
	URL     string
	Timeout time.Duration
	Method  string
	Accept  string
}

// rawConfig mirrors #Config for cue.Value.Decode.
type rawConfig struct {
	Endpoint struct {
		URL     string `json:"url"`
		Timeout string `json:"timeout"`
		Method  string `json:"method"`
		Accept  string `json:"accept"`
	} `json:"endpoint"`
	Extensions        []string `json:"extensions"`
	Store             string   `json:"store"`
	StrictComposition bool     `json:"strict_composition"`
}
