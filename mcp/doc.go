// Package mcp defines the subset of Model Context Protocol wire types this
// server speaks: the initialization handshake and the tools surface.
//
// The types mirror the MCP schema but only carry the fields the Search
// Console tool catalog needs; capabilities this server never advertises
// (resources, prompts, sampling) are intentionally absent.
package mcp
