// Package model defines the provider-agnostic abstraction agents use to
// draft fact content inside FactMesh.
//
// Core goals:
//   - One blocking Complete call per drafting step; no streaming surface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight, deterministic mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so agents remain decoupled from vendor SDKs. Model output is
// inherently non-deterministic; agents are expected to derive stable fact
// ids from the content so re-emission across cycles stays idempotent.
package model
