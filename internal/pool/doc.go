// Package pool runs a batch of recordings across N parallel sessions.
//
// Run opens N audio sinks, launches one browser per sink, and feeds the
// job's URLs through a shared queue to the sessions. Every acquired sink and
// browser is released before Run returns, browsers first, whatever happened
// during the run. Failures while releasing are reported, never returned.
package pool
