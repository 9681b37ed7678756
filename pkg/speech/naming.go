package speech

import (
	"path/filepath"
	"strings"
)

const (
	artifactPrefix = "speech___"
	artifactExt    = ".mp3"
	fixedSuffix    = "_fixed"
	nameWords      = 6
)

// ArtifactName derives the audio file name from text: lowercased, reduced to
// letters and spaces, first six space separated words joined by "_".
//
//	"Hello, World! Foo Bar Baz Qux Quux" -> "speech___hello_world_foo_bar_baz_qux.mp3"
func ArtifactName(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
		}
	}

	words := strings.Split(b.String(), " ")
	if len(words) > nameWords {
		words = words[:nameWords]
	}
	return artifactPrefix + strings.Join(words, "_") + artifactExt
}

// FixedPath returns the re-encoded output path for path: "_fixed" inserted
// before the extension.
func FixedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + fixedSuffix + ext
}
