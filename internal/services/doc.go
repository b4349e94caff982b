// Package services defines shared utilities consumed by the recording
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, session IDs, stage names, and target
//     URLs for logging.
//   - Structured error markers plus the Wrap helper so failures keep their
//     kind (resource, launch, authentication, extraction, format, capture) as
//     they travel from a component up to the session pool.
//
// Use these helpers when wiring new pipeline steps so error classification
// and log shape stay uniform across sessions.
package services
