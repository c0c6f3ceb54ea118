package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectorsFromEnvDefaults(t *testing.T) {
	s := SelectorsFromEnv()
	require.Equal(t, DefaultSelectors(), s)
}

func TestSelectorsFromEnvOverride(t *testing.T) {
	t.Setenv("CHATWIPE_SEL_CONVERSATION_LINK", `a[data-conv]`)
	t.Setenv("CHATWIPE_SEL_CONFIRM_TEXT", "Remove")

	s := SelectorsFromEnv()
	require.Equal(t, `a[data-conv]`, s.ConversationLink)
	require.Equal(t, "Remove", s.ConfirmText)
	require.Equal(t, DefaultSelectors().Sidebar, s.Sidebar, "untouched fields keep their defaults")
}
