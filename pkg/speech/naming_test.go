package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArtifactName(t *testing.T) {
	cases := []struct {
		text     string
		expected string
	}{
		{"Hello, World! Foo Bar Baz Qux Quux", "speech___hello_world_foo_bar_baz_qux.mp3"},
		{"short", "speech___short.mp3"},
		{"Ünïcode 42 gets dropped", "speech___ncode__gets_dropped.mp3"},
		{"", "speech___.mp3"},
	}
	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			assert.Equal(t, c.expected, ArtifactName(c.text))
		})
	}
}

func TestFixedPath(t *testing.T) {
	assert.Equal(t, "speech___a_b_fixed.mp3", FixedPath("speech___a_b.mp3"))
	assert.Equal(t, "out/x_fixed.mp3", FixedPath("out/x.mp3"))
	assert.Equal(t, "noext_fixed", FixedPath("noext"))
}
