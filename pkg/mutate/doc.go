// Package mutate produces alternative layouts by changing one attribute of
// a building: its section type, one level's level type, or the window type
// on one side of one module.
//
// Every affected module is replaced by the closest catalogue module for the
// changed attribute (see package match). When the replacement is shorter
// than the original, MID vanilla modules pad the difference on the row's
// interior side. When it is longer, the module is rebuilt from vanilla
// modules alone. A row whose physical length would drift by more than
// [Options.Epsilon] cannot be mutated.
//
// Mutations never modify their input. Each alternative is assembled and
// positioned from scratch, and an alternative in which any row fails to
// mutate is dropped as a whole. Alternatives are ranked by [Alternative.Cost],
// the summed match scores plus the number of filler modules inserted.
package mutate
