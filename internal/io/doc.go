// Package ioutils provides file system and image utilities.
//
// This package contains functions for:
//   - Atomic file writing
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - Plot thumbnails
//
// # File Operations
//
//	// Write data to file, creating directories
//	err := ioutils.WriteFile(ctx, "plots/session1.png", data)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("rat 12: day 3/4") // Returns "rat 12_ day 3_4"
//
// # Thumbnails
//
//	svc := ioutils.NewImageService()
//	thumb, _ := svc.Thumbnail(ctx, pngData, 200)
package ioutils
