package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/pkg/printer"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevOut, prevErr, prevNoColor := printer.Out, printer.Err, color.NoColor
	var buf bytes.Buffer
	printer.Out, printer.Err, color.NoColor = &buf, &buf, true
	t.Cleanup(func() { printer.Out, printer.Err, color.NoColor = prevOut, prevErr, prevNoColor })
	return &buf
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "GHS 50.00", money("GHS", 5000))
	assert.Equal(t, "GHS 10.05", money("GHS", 1005))
}

func TestTargetNamesAreSorted(t *testing.T) {
	assert.Equal(t, []string{"donations", "dues", "events", "forum", "jobs", "members"}, targetNames())
	assert.True(t, watchTargets["members"].admin)
	assert.False(t, watchTargets["events"].admin)
}

func TestRunWatch_RejectsUnknownCollection(t *testing.T) {
	out := captureOutput(t)

	err := runWatch(watchCmd, []string{"shipments"})

	require.EqualError(t, err, "unknown collection")
	assert.Contains(t, out.String(), "Pick one of: donations, dues, events, forum, jobs, members")
}

func TestPrintStream_StopsOnFailedView(t *testing.T) {
	out := captureOutput(t)
	ch := make(chan ports.View[domain.Event], 2)
	ch <- ports.View[domain.Event]{Version: 1, Items: []domain.Event{{Title: "Homecoming", Date: "2026-12-01", Venue: "Legon"}}}
	ch <- ports.View[domain.Event]{Version: 2, Error: "subscription lost"}

	err := printStream(context.Background(), ch, nil, func(e domain.Event) string { return e.Title + " @ " + e.Venue })

	require.EqualError(t, err, "live updates stopped")
	assert.Contains(t, out.String(), "1 item(s)")
	assert.Contains(t, out.String(), "  Homecoming @ Legon\n")
	assert.Contains(t, out.String(), "subscription lost")
}

func TestPrintStream_EndsWhenChannelCloses(t *testing.T) {
	captureOutput(t)
	ch := make(chan ports.View[domain.Event])
	close(ch)

	assert.NoError(t, printStream(context.Background(), ch, nil, func(e domain.Event) string { return e.Title }))
}
