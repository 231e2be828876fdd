// Package probe measures the playable duration of a single audio file.
//
// Two strategies are provided, both driven through an external binary:
//   - FFprobe: reads container metadata via ffprobe JSON output (fast, exact)
//   - Decoder: decodes the audio stream with ffmpeg and reads the final
//     progress timestamp (used when ffprobe is not installed)
//
// Every failure is reported wrapped in ErrDecode and names the offending file.
// Source files are opened read-only by the external tool and never modified.
package probe
