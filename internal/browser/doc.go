// Package browser drives portal pages.
//
// Launcher starts one isolated browser per session, bound to a profile
// directory and an audio sink. Page exposes the handful of driver operations
// the login flow, the metadata extractor, and the recording session need.
// Elements are addressed with Locator values, which render to XPath so the
// same locator works against a live Chrome tab (ChromeLauncher) and against
// saved HTML (StaticPage).
package browser
