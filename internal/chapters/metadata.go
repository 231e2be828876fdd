package chapters

import (
	"strconv"
	"strings"
)

// Metadata document constants. The header must be the first line for ffmpeg
// to recognise the file as ffmetadata.
const (
	MetadataHeader = ";FFMETADATA1"
	chapterMarker  = "[CHAPTER]"
	timebase       = "TIMEBASE=1/1000"
)

// metadataEscaper escapes characters that carry meaning in ffmetadata values.
var metadataEscaper = strings.NewReplacer(
	`\`, `\\`,
	`=`, `\=`,
	`;`, `\;`,
	`#`, `\#`,
	"\n", "\\\n",
)

// RenderMetadata serializes records into an ffmetadata chapter document:
// the header line, then one block per record in order. Lines are joined with
// "\n" and the document has no trailing newline. Output depends only on the
// input, so equal records always render byte-identical documents.
func RenderMetadata(records []Record) string {
	lines := make([]string, 0, 1+5*len(records))
	lines = append(lines, MetadataHeader)
	for _, r := range records {
		lines = append(lines,
			chapterMarker,
			timebase,
			"START="+strconv.FormatInt(r.Start, 10),
			"END="+strconv.FormatInt(r.End, 10),
			"title="+EscapeValue(r.Title),
		)
	}
	return strings.Join(lines, "\n")
}

// EscapeValue escapes a metadata value for the ffmetadata dialect.
func EscapeValue(v string) string {
	return metadataEscaper.Replace(v)
}

// CountChapters returns the number of chapter blocks in an ffmetadata document.
func CountChapters(doc string) int {
	n := 0
	for _, line := range strings.Split(doc, "\n") {
		if line == chapterMarker {
			n++
		}
	}
	return n
}
