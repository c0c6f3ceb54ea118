package chat

import "os"

// Selectors is the fixed set of CSS selectors the tool depends on in the
// target application's DOM. It is the primary fragility point: the remote UI
// is unversioned and can shift under us, so the whole set is plain data that
// can be overridden from the environment without a rebuild.
type Selectors struct {
	// Sidebar is the structural anchor for the conversation list. When it
	// cannot be found at all the page layout has drifted and the run aborts.
	Sidebar string

	// ConversationLink matches every conversation entry in the sidebar.
	ConversationLink string

	// OptionsButton is the hover-revealed per-row menu trigger.
	OptionsButton string

	// DeleteMenuItem is the Delete entry in the row's dropdown menu.
	DeleteMenuItem string

	// ConfirmDialog is the confirmation dialog that follows DeleteMenuItem.
	ConfirmDialog string

	// ConfirmText is the label matched against buttons inside ConfirmDialog.
	ConfirmText string

	// ConfirmFallback is tried when no button in the dialog matches
	// ConfirmText.
	ConfirmFallback string
}

// DefaultSelectors returns the known-good selector set for the target app.
func DefaultSelectors() Selectors {
	return Selectors{
		Sidebar:          `nav`,
		ConversationLink: `a[href^="/c/"]`,
		OptionsButton:    `button[data-testid$="-options"][aria-haspopup="menu"]`,
		DeleteMenuItem:   `div[data-testid="delete-chat-menu-item"]`,
		ConfirmDialog:    `div[role="dialog"]`,
		ConfirmText:      "Delete",
		ConfirmFallback:  `div[role="dialog"] button:last-of-type`,
	}
}

// SelectorsFromEnv starts from the defaults and applies any CHATWIPE_SEL_*
// overrides, the escape hatch for UI drift.
func SelectorsFromEnv() Selectors {
	s := DefaultSelectors()
	override(&s.Sidebar, "CHATWIPE_SEL_SIDEBAR")
	override(&s.ConversationLink, "CHATWIPE_SEL_CONVERSATION_LINK")
	override(&s.OptionsButton, "CHATWIPE_SEL_OPTIONS_BUTTON")
	override(&s.DeleteMenuItem, "CHATWIPE_SEL_DELETE_MENU_ITEM")
	override(&s.ConfirmDialog, "CHATWIPE_SEL_CONFIRM_DIALOG")
	override(&s.ConfirmText, "CHATWIPE_SEL_CONFIRM_TEXT")
	override(&s.ConfirmFallback, "CHATWIPE_SEL_CONFIRM_FALLBACK")
	return s
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
