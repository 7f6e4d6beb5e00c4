// Package log provides structured logging with automatic scrubbing of
// location-revealing values, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Masking of GPS coordinates and device identifiers found in image metadata
//   - Home-directory prefixes rewritten to "~" so shared logs don't leak
//     operator usernames and machine layout
//   - Truncation of oversized values (raw annotation dumps)
//   - Configurable log levels with verbose mode support
//
// Survey imagery is frequently captured on contractors' personal devices.
// EXIF findings necessarily pass tag values through the logger, and those
// values can pinpoint a capture location or identify the camera owner. The
// ScrubHandler masks them even in verbose mode, because verbose logs are
// exactly the ones that get pasted into tickets.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("exif finding",
//	    "gps_latitude", "-34.92866",  // Will be masked
//	    "image", "/home/alice/data/train/photo_001.jpg", // Becomes ~/data/...
//	)
package log
