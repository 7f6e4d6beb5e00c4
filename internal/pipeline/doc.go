// Package pipeline provides a framework for processing dataset subsets in
// sequence of steps.
//
// Each subset flows through the same stages: loading images and
// annotations, quality checking, wrangling operations, summarizing, and
// exporting. Each stage is implemented as a Step that receives the current
// report and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running runs
//
// The pipeline supports both single-subset runs and batch processing of a
// whole dataset root with concurrency control using errgroup.
package pipeline
