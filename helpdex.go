// Package helpdex provides hybrid (semantic + lexical) search over extracted
// HTML help archives. It parses a tree of topic pages and their HHC/HHK
// navigation files, splits pages into overlapping heading-aware chunks,
// builds a fused dense/BM25 index over those chunks, and resolves
// cross-document relationships into a navigable link graph served over MCP.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package helpdex
