package ui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsole_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Step("Building image…")
	c.Warn("docker compose down failed – continuing anyway")
	c.Fatal("%s failed:\n%s", "Build", "no space left on device")
	c.Section("Listening sockets:", "")
	c.Text("   \n")
	c.Text("line one\n")
	c.Success("All done!")

	expected := "\nBuilding image…\n" +
		"⚠️  docker compose down failed – continuing anyway\n" +
		"❌ Build failed:\nno space left on device\n" +
		"\nListening sockets:\n" +
		"line one\n" +
		"\nAll done!\n"
	assert.Equal(t, expected, buf.String())
}

func TestConsole_Colorized(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, true).Warn("careful")
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "careful")
}

func TestConsole_FormatVerbsInArgumentsAreLiteral(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, false).Fatal("%s failed:\n%s", "Build", "100% broken")
	assert.Equal(t, "❌ Build failed:\n100% broken\n", buf.String())
}

func TestNoSpinner_RunsOnce(t *testing.T) {
	calls := 0
	err := NoSpinner{}.Do(context.Background(), "working", func(context.Context) { calls++ })
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTerminalSpinner_RunsStepOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	calls := 0
	err := NewTerminalSpinner(&out).Do(ctx, "working", func(context.Context) {
		time.Sleep(150 * time.Millisecond)
		calls++
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, ctx.Err())
}

func TestSpinnerModel_ClearsWhenDone(t *testing.T) {
	m := newSpinnerModel("Building image")
	assert.Contains(t, m.View(), "Building image")

	next, cmd := m.Update(doneMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, "", next.View())
}
