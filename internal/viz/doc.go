// Package viz renders trajectories in the terminal.
//
//   - [Plot]: asciigraph line charts of components and energy
//   - [Canvas]: Braille-based pixel canvas with a world-to-screen [Viewport]
//   - [Model]: Bubble Tea playback of a finished trajectory
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Restart from the first state
//	[ ]   - Step backward/forward while paused
//	+ -   - Faster/slower playback
//	Q     - Quit
package viz
