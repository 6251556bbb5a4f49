// Package checkpoint provides functionality for resuming multi-creator runs.
//
// A run that scrapes several creators records each creator as soon as its
// files are written. When the run is interrupted by a rejected session, a
// pagination failure or a manual stop, `ptscraper scrape --resume` skips the
// creators that already finished. It tracks:
//   - The account and the date filter the run was started with
//   - Completed creators with the files written for them
//
// Checkpoints live under the state directory (state.directory, else
// $XDG_DATA_HOME/ptscraper or ~/.local/share/ptscraper) in checkpoints/.
//
// The checkpoint files are saved atomically to prevent corruption and include
// versioning for future compatibility.
package checkpoint
