// Package mcp implements the core of a bidirectional Model Context Protocol
// runtime: a Server and a Client that exchange JSON-RPC 2.0 style messages
// over a pluggable transport.Transport, with a formal lifecycle (the
// initialize handshake), typed request/response correlation, notification
// fan-out, and capability negotiation.
//
// The concrete schemas of individual MCP methods (Prompts, Resources, Tools)
// are defined in methods.go as a convenience; the dispatch machinery itself
// is agnostic to any particular method set, and embedders may register their
// own methods and notifications with RegisterMethod and RegisterNotification.
package mcp
