// Package mcp provides an MCP (Model Context Protocol) server adapter for NutriGenie.
// It lets AI assistants check queries against the guardrail and look up
// recipes from the reference dataset.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

// errNotConfigured is returned by tools whose port was not provided.
var errNotConfigured = errors.New("mcp: service not configured")
