// Package viz renders validation results and field curves on the terminal.
//
// Static output is built from lipgloss panels and asciigraph charts:
//
//   - [Summary]: headline numbers of a validation result
//   - [ResultChart]: observed against predicted velocity
//   - [FieldChart]: one field quantity over the evaluation grid
//
// [Explorer] is a Bubble Tea model for tuning the four model scales live.
//
// # Key Bindings
//
//	Tab    - Select next parameter
//	↑/k    - Raise selected parameter by 5%
//	↓/j    - Lower selected parameter by 5%
//	R      - Reset to the initial parameters
//	T      - Cycle color themes
//	?      - Show help
//	Q      - Quit
package viz
