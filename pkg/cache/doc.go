// Package cache provides a small thread-safe LRU cache used for
// derived data that is cheap to recompute but hot enough to keep
// around, such as compiled condition programs.
package cache
