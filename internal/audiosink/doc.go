// Package audiosink manages the virtual PulseAudio outputs that isolate each
// browser session's audio.
//
// A Sink is allocated with a short random ID, opened by loading a
// module-null-sink through pactl, and closed by unloading that module. The
// encoder reads the sink's ".monitor" source. Manager abstracts the OS side
// so the session pool can be exercised without an audio server.
package audiosink
