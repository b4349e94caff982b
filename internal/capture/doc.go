// Package capture records a sink's monitor source to a file with ffmpeg.
//
// Start spawns the encoder and returns at once; Stop interrupts it with
// SIGINT so ffmpeg finalizes the file, and never waits. The process is
// reaped in the background.
package capture
