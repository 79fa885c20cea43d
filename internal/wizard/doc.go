// Package wizard provides the interactive settings editor behind
// "sigknife config edit".
//
// The editor lists every setting with its current value. Booleans toggle and
// the output style cycles in place; numeric fields open an inline text input.
// Changes are validated as they are made and only written when the user saves.
//
// # Keys
//
//	↑/k ↓/j   move between settings
//	enter     toggle, cycle or edit the focused setting
//	esc       cancel an inline edit
//	s         save and quit
//	q         quit without saving
//	?         toggle full help
package wizard
