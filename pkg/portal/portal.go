// Package portal provides the public API for embedding the feedlot portal.
// This is the stable API for external consumers.
package portal

import (
	"github.com/tjfontaine/feedlot-portal/internal/pkg/config"
	"github.com/tjfontaine/feedlot-portal/internal/runtime"
)

// Portal is the main entry point for running the portal.
// See internal/runtime.Portal for full documentation.
type Portal = runtime.Portal

// Option is a functional option for configuring a Portal.
type Option = runtime.Option

// Config is the portal configuration.
type Config = config.Config

// New creates a new Portal with the given options.
// Example:
//
//	p, err := portal.New(
//	    portal.WithConfigFile("config.yaml"),
//	    portal.WithLogger(logger),
//	)
var New = runtime.New

// LoadConfig reads a configuration file and the environment.
var LoadConfig = config.Load

// Configuration options
var (
	WithConfig     = runtime.WithConfig
	WithConfigFile = runtime.WithConfigFile
	WithLogger     = runtime.WithLogger
	WithAddr       = runtime.WithAddr

	// Advanced options
	WithJournal    = runtime.WithJournal
	WithContract   = runtime.WithContract
	WithHTTPClient = runtime.WithHTTPClient
)
