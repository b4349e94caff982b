// Package metadata reads recording details from a portal notice page.
package metadata
