package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hangulFont finds a TTF with Hangul coverage, preferring the repo asset and
// falling back to common system locations. Skips the test when none exists.
func hangulFont(t *testing.T) string {
	t.Helper()
	candidates := []string{
		filepath.Join("..", "..", "assets", "fonts", "NanumGothic.ttf"),
		"/usr/share/fonts/truetype/nanum/NanumGothic.ttf",
		"/usr/share/fonts/truetype/nanum/NanumGothicBold.ttf",
		"/usr/share/fonts/truetype/unfonts-core/UnDotum.ttf",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("no hangul-capable ttf installed")
	return ""
}

func TestRenderCodeCardsEmbedsHangulFont(t *testing.T) {
	exporter := NewPDFExporterWithFont(hangulFont(t))

	out, err := exporter.RenderCodeCards([]CodeCard{{Name: "지민", Code: "ABCD1234"}}, "3학년 2반")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	// The name cells must leave the Latin-1 core fonts: an embedded TrueType
	// program plus a ToUnicode map is what lets a viewer render and extract
	// the Hangul name.
	assert.Contains(t, string(out), "FontFile2")
	assert.Contains(t, string(out), "ToUnicode")
}

func TestRenderCodeCardsCoreFontFallback(t *testing.T) {
	exporter := NewPDFExporter()

	out, err := exporter.RenderCodeCards([]CodeCard{{Name: "Jimin", Code: "ABCD1234"}}, "Class 3-2")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.NotContains(t, string(out), "FontFile2")
}

func TestRenderCodeCardsRequiresCards(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.RenderCodeCards(nil, "빈 반")
	require.Error(t, err)
}

func TestRenderTableUsesEmbeddedFont(t *testing.T) {
	exporter := NewPDFExporterWithFont(hangulFont(t))

	out, err := exporter.Render(Dataset{
		Headers: []string{"Name", "Login Code"},
		Rows:    []map[string]string{{"Name": "지민", "Login Code": "ABCD1234"}},
	}, "3학년 2반")
	require.NoError(t, err)
	assert.Contains(t, string(out), "FontFile2")
}
