// Package procgroup starts children in their own process group and signals
// the group as a whole, so that a tool and everything it spawned (npm, then
// node, then whatever node forks) are stopped together.
package procgroup
