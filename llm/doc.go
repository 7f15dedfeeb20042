// Package llm defines the request/response envelope, error taxonomy and
// transport contract shared by every inference operation in ReddyFit.
//
// The package is transport-agnostic: llm/gemini implements the Generator
// interface against the Google Generative Language API, and the coach
// package composes Generator calls into typed fitness operations.
package llm
