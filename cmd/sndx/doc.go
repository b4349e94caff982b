// Package main hosts the sndx CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, builds the audio sinks, the
// browser launcher, and the capture controller, and hands a batch of
// recording URLs to the session pool. Supporting commands inspect saved
// pages offline, list the recording catalog, and check the host.
//
// Keep this package lean: behavior belongs in the internal packages and is
// only surfaced here through commands and flags.
package main
