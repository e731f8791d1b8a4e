// Package stretch implements the interactive resize of a building along one
// axis by revealing or hiding filler columns at one end.
//
// A [Controller] moves through three states:
//
//	Idle ──Init──▶ Initialized ──GestureStart──▶ Gesturing
//	                    ▲                            │
//	                    └────────GestureEnd──────────┘
//
// Init instantiates as many hidden filler columns as fit below the maximum
// depth. During a gesture the bookend column (the one being dragged) moves
// freely, and each time it clears the width of the next filler that filler
// is revealed, provided the [Collider] reports the space free. Dragging back
// hides vanilla columns again. GestureEnd snaps the bookend flush, packs and
// reindexes the visible columns and re-initializes. Cleanup returns to Idle
// from any state.
//
// Columns live in an arena and are referred to by integer id. The ordered
// column list of a gesture is a list of ids into that arena.
package stretch
