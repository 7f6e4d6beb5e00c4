// Package metrics computes per-class detection quality metrics.
//
// This package compares hand-labelled annotations against model predictions
// at image granularity: each image is reduced to a per-class presence vector
// (does any box of this class appear), and precision, recall, F1, and
// accuracy are computed per class from the resulting binary vectors.
//
// Box-level matching (IoU-based mAP) is deliberately out of scope: presence
// metrics answer the question practitioners ask first ("does the model find
// the defect at all") and are robust to annotation box sloppiness.
package metrics
