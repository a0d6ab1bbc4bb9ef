// Package match implements the biometric comparison engine.
//
// Both factors compare by Euclidean distance against fixed thresholds: a face
// candidate is accepted when it lands within tolerance of ANY stored sample
// (enrollment keeps several samples to tolerate pose and lighting variance);
// a voice candidate compares against the single stored signature. Comparisons
// are pure functions of their inputs and the configured thresholds.
package match
