package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shehryarbajwa/chatwipe/pkg/models"
)

// ErrStructureMismatch means the page's structural anchor could not be found:
// the target UI has changed shape and no amount of retrying will help. The
// run aborts rather than silently deleting nothing.
var ErrStructureMismatch = errors.New("conversation list structure not found on page")

// Enumerator reads the current conversation list off the rendered page.
type Enumerator struct {
	driver Driver
	sel    Selectors
}

// NewEnumerator wires an enumerator to a driver and selector set.
func NewEnumerator(driver Driver, sel Selectors) *Enumerator {
	return &Enumerator{driver: driver, sel: sel}
}

// List returns the conversations currently rendered, in page order, deduped.
// An empty list with the sidebar present is the loop's normal terminal
// condition, not an error.
func (e *Enumerator) List(ctx context.Context) ([]models.Conversation, error) {
	if err := e.driver.WaitVisible(ctx, e.sel.Sidebar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStructureMismatch, err)
	}

	hrefs, err := e.driver.Hrefs(ctx, e.sel.ConversationLink)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation links: %w", err)
	}

	seen := make(map[string]struct{}, len(hrefs))
	convs := make([]models.Conversation, 0, len(hrefs))
	for _, href := range hrefs {
		id := conversationID(href)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		convs = append(convs, models.Conversation{ID: id, Href: href})
	}
	return convs, nil
}

// conversationID extracts the opaque thread ID, the final path segment of a
// /c/... link.
func conversationID(href string) string {
	href = strings.TrimSuffix(href, "/")
	if !strings.Contains(href, "/c/") {
		return ""
	}
	idx := strings.LastIndex(href, "/")
	return href[idx+1:]
}
