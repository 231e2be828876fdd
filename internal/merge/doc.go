// Package merge turns a directory of per-chapter audio files into a single
// chaptered audiobook.
//
// A Merger runs one strictly sequential pipeline per call:
//
//	Scanning -> Ordering -> BuildingArtifacts -> MergingAudio -> EmbeddingChapters -> CleaningUp -> Done
//
// Any failure moves the run to Aborted and leaves whatever artifacts were
// already written in place for inspection. All files the run creates live in
// the target directory: the chapter metadata document (kept), the concat list
// and the intermediate audio (removed on success), and the final output.
package merge
