package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_MatchInMiddle(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 10) + "the quick brown fox" + strings.Repeat(" dolor sit amet", 15)

	got := Generate(text, "brown")

	assert.True(t, strings.HasPrefix(got, Ellipsis))
	assert.True(t, strings.HasSuffix(got, Ellipsis))
	assert.Contains(t, got, "brown")
	assert.Equal(t, Width+2*len(Ellipsis), len([]rune(got)))

	body := strings.TrimSuffix(strings.TrimPrefix(got, Ellipsis), Ellipsis)
	assert.Equal(t, Before, strings.Index(body, "brown"))
}

func TestGenerate_MatchNearStart(t *testing.T) {
	text := "brown fox " + strings.Repeat("x", 200)
	got := Generate(text, "BROWN")
	assert.True(t, strings.HasPrefix(got, "brown fox"))
	assert.True(t, strings.HasSuffix(got, Ellipsis))
}

func TestGenerate_ShortTextNoMarkers(t *testing.T) {
	assert.Equal(t, "the quick brown fox", Generate("the quick brown fox", "Quick"))
}

func TestGenerate_MatchNearEnd(t *testing.T) {
	text := strings.Repeat("y", 100) + " brown fox"
	got := Generate(text, "fox")
	assert.True(t, strings.HasPrefix(got, Ellipsis))
	assert.True(t, strings.HasSuffix(got, "brown fox"))
}

func TestGenerate_NotFoundFallsBack(t *testing.T) {
	text := strings.Repeat("z", 300)
	got := Generate(text, "alpha beta")
	assert.Equal(t, strings.Repeat("z", Width), got)

	assert.Equal(t, "short", Generate("short", "missing"))
	assert.Equal(t, "", Generate("", "anything"))
}

func TestGenerate_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 50) + "target" + strings.Repeat("ü", 200)
	got := Generate(text, "TARGET")
	body := strings.TrimSuffix(strings.TrimPrefix(got, Ellipsis), Ellipsis)
	assert.Equal(t, Width, len([]rune(body)))
	assert.True(t, strings.HasPrefix(body, strings.Repeat("é", Before)+"target"))
}

func TestGenerate_BlankQuery(t *testing.T) {
	assert.Equal(t, "some text", Generate("some text", "   "))
}
