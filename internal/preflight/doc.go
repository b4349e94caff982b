// Package preflight provides readiness checks for the programs, services,
// and filesystem paths sndx depends on.
//
// These checks run in two contexts:
//   - The extract command calls RunAll before allocating sessions. If any
//     required check fails, the run stops before a sink or browser exists.
//   - The "sndx doctor" command prints every check, including the portal
//     reachability probe, as a table.
package preflight
