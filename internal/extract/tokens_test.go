package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTokenDump(t *testing.T) {
	t.Run("parses and sorts pages", func(t *testing.T) {
		dump := `{"pages":[
			{"page":1,"tokens":[{"text":"B","x":10,"y":700}]},
			{"page":0,"tokens":[{"text":"A","x":10,"y":700}],"usedOcr":true}
		]}`
		pages, err := ReadTokenDump(strings.NewReader(dump))
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, 0, pages[0].Page)
		assert.True(t, pages[0].UsedOCR)
		assert.Equal(t, "A", pages[0].Tokens[0].Text)
		assert.Equal(t, 1, pages[1].Page)
	})

	t.Run("empty dump rejected", func(t *testing.T) {
		_, err := ReadTokenDump(strings.NewReader(`{"pages":[]}`))
		assert.Error(t, err)
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		_, err := ReadTokenDump(strings.NewReader(`{`))
		assert.Error(t, err)
	})
}

func TestReadTokenDumpFile_Missing(t *testing.T) {
	_, err := ReadTokenDumpFile("does-not-exist.json")
	assert.Error(t, err)
}
