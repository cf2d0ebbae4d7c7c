// Package popover places floating elements against their anchors and keeps
// them placed while the document changes.
//
// A Registry owns every connected popover of one document. Connecting a
// popover places it once and wires observers so that class changes, resizes
// of the popover or its containing block, scrolling of a positioned ancestor
// and window resizes trigger another placement pass.
//
// A placement pass reads the popover's class tokens, computes the anchor
// point with the geometry package, optionally mirrors the placement with the
// flip package, and writes the left and top styles. Passes are a pure
// function of the current geometry; a pass with unchanged inputs writes
// nothing, which stops resize notifications from cycling.
//
// Like the document it works on, a Registry must only be used from the
// goroutine that owns the document.
package popover
