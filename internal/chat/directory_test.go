package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory(t *testing.T) {
	base := []Conversation{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
		{ID: "c", Title: "Gamma"},
	}

	t.Run("list order is the server's, untouched", func(t *testing.T) {
		d := NewDirectory()
		d.SetConversations(base)
		got := d.Conversations()
		require.Len(t, got, 3)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "c", got[2].ID)
	})

	t.Run("insert prepends and selects", func(t *testing.T) {
		d := NewDirectory()
		d.SetConversations(base)
		d.Insert(Conversation{ID: "new", Title: "Fresh"})
		assert.Equal(t, "new", d.Conversations()[0].ID)
		assert.Equal(t, "new", d.ActiveID())
		assert.Equal(t, 4, d.Len())
	})

	t.Run("rename changes only the title, in place", func(t *testing.T) {
		d := NewDirectory()
		d.SetConversations(base)
		require.True(t, d.ApplyRename("b", "Renamed"))
		got := d.Conversations()
		assert.Equal(t, "Renamed", got[1].Title)
		assert.Equal(t, "b", got[1].ID)
		assert.False(t, d.ApplyRename("missing", "x"))
	})

	t.Run("delete clears the active selection when it matches", func(t *testing.T) {
		d := NewDirectory()
		d.SetConversations(base)
		require.True(t, d.Select("b"))
		require.True(t, d.Remove("b"))
		assert.Equal(t, "", d.ActiveID())
		assert.Equal(t, 2, d.Len())
	})

	t.Run("delete of another entry keeps the selection", func(t *testing.T) {
		d := NewDirectory()
		d.SetConversations(base)
		require.True(t, d.Select("a"))
		require.True(t, d.Remove("c"))
		assert.Equal(t, "a", d.ActiveID())
	})

	t.Run("select refuses unknown ids and allows clearing", func(t *testing.T) {
		d := NewDirectory()
		d.SetConversations(base)
		assert.False(t, d.Select("nope"))
		require.True(t, d.Select("a"))
		require.True(t, d.Select(""))
		assert.Equal(t, "", d.ActiveID())
	})

	t.Run("list reload drops a selection that vanished server-side", func(t *testing.T) {
		d := NewDirectory()
		d.SetConversations(base)
		require.True(t, d.Select("c"))
		d.SetConversations(base[:2])
		assert.Equal(t, "", d.ActiveID())
	})
}

func TestTitleFromInput(t *testing.T) {
	t.Run("short input kept whole", func(t *testing.T) {
		assert.Equal(t, "What is decree 70/2023?", TitleFromInput("  What is decree 70/2023?  "))
	})

	t.Run("long input truncated to the seed limit", func(t *testing.T) {
		long := strings.Repeat("qué dice el decreto ", 10)
		title := TitleFromInput(long)
		assert.Equal(t, TitleSeedLimit, len([]rune(title)))
		assert.Equal(t, string([]rune(strings.TrimSpace(long))[:TitleSeedLimit]), title)
	})

	t.Run("multibyte input is cut on rune boundaries", func(t *testing.T) {
		long := strings.Repeat("ñ", 80)
		title := TitleFromInput(long)
		assert.Equal(t, strings.Repeat("ñ", TitleSeedLimit), title)
	})
}
