// Package chapters turns an ordered list of chapter files into a gapless
// chapter timeline and renders it as an FFMETADATA document.
//
// Key types:
//   - Source: one input audio file with its derived title and duration
//   - Record: one timeline entry with millisecond start/end offsets
//
// Primary entry points:
//   - BuildTimeline: probes every source in order and folds durations into records
//   - RenderMetadata: serializes records into the ffmpeg metadata dialect
package chapters
