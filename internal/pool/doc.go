// Package pool provides memory management optimizations.
// This includes pooling of the growable buffers used to stage parts in memory.
//
// Reusing staging buffers across parts and writers avoids re-growing a
// buffer from scratch for every part of a large stream.
package pool
