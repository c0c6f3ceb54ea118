package chat

import (
	"context"
	"fmt"
)

// fakeDriver scripts the page from the driver's point of view: which
// selectors are visible, which hrefs the link query returns, and which calls
// fail. It also records every call for sequence assertions.
type fakeDriver struct {
	hrefs []string

	// existsQueue scripts successive Exists answers, in order. When the
	// queue drains, Exists answers false.
	existsQueue []bool

	failWait  map[string]error
	failClick map[string]error

	clickTextHit bool

	calls []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		failWait:     make(map[string]error),
		failClick:    make(map[string]error),
		clickTextHit: true,
	}
}

func (d *fakeDriver) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDriver) WaitVisible(ctx context.Context, sel string) error {
	d.record("wait %s", sel)
	if err := d.failWait[sel]; err != nil {
		return err
	}
	return nil
}

func (d *fakeDriver) Hrefs(ctx context.Context, sel string) ([]string, error) {
	d.record("hrefs %s", sel)
	return d.hrefs, nil
}

func (d *fakeDriver) Click(ctx context.Context, sel string) error {
	d.record("click %s", sel)
	if err := d.failClick[sel]; err != nil {
		return err
	}
	return nil
}

func (d *fakeDriver) Hover(ctx context.Context, sel string) error {
	d.record("hover %s", sel)
	return nil
}

func (d *fakeDriver) ClickText(ctx context.Context, containerSel, text string) (bool, error) {
	d.record("clicktext %s %s", containerSel, text)
	return d.clickTextHit, nil
}

func (d *fakeDriver) Exists(ctx context.Context, sel string) (bool, error) {
	d.record("exists %s", sel)
	if len(d.existsQueue) == 0 {
		return false, nil
	}
	answer := d.existsQueue[0]
	d.existsQueue = d.existsQueue[1:]
	return answer, nil
}

func (d *fakeDriver) Reload(ctx context.Context) error {
	d.record("reload")
	return nil
}
