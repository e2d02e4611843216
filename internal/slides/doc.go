// Package slides finds slide boundaries in a lecture recording.
//
// A Sampler thins the decoded frame stream to one frame per interval. The
// Detector compares a fixed anchor region of each sampled frame against the
// region of the last accepted slide and accepts a frame when the similarity
// drops below the threshold and the minimum slide duration has elapsed.
// Detection is a pure Step over an explicit DetectorState; Run merely loops
// it. Similarity combines SSIM over blurred luminance with the share of
// near-identical pixels.
//
// The package does not log. Callers observe decisions through Observer.
package slides
