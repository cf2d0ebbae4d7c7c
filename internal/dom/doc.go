// Package dom is a small in-process document model: an element tree with class
// lists, attributes, inline styles, positioning and scrolling, plus synchronous
// observers for class mutations, resizes, scrolling and window resizes.
//
// A Document and its elements are owned by a single goroutine. Observer
// callbacks run synchronously on that goroutine, inside the call that caused
// the change.
package dom
