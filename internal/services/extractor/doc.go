// Package extractor wraps the external feature-extraction helper.
//
// The helper binary turns a camera frame into face embedding vectors (one per
// detected face, possibly none) and a recorded clip into a mean-MFCC voice
// signature, emitting JSON on stdout. The core treats embedding
// dimensionality and coefficient count as configuration it validates but does
// not compute.
package extractor
