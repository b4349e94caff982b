// Package textutil provides text cleanup for scraped page content and the
// filename sanitizer used for recording output paths.
//
// SafeFilename restricts names to [A-Za-z0-9._-] so files written by the
// encoder are portable across filesystems and shells. Normalize folds
// scraped text into NFC with collapsed whitespace before it is stored or
// sanitized, so visually identical titles produce identical filenames.
package textutil
