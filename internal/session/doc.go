// Package session runs recordings on one browser.
//
// A Browser owns a launched page bound to a profile directory and an audio
// sink. A Runner drives that page through one URL at a time: login,
// metadata extraction, capture for the published duration, then stop. Steps
// never overlap within a session; sessions run independently of each other.
package session
