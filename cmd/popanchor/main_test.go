package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/popanchor/internal/config"
	"github.com/jmylchreest/popanchor/internal/report"
	"github.com/jmylchreest/popanchor/internal/scene"
)

const cliScene = `
window: {width: 800, height: 600}
elements:
  - id: button
    frame: [100, 50, 40, 20]
  - id: popover-menu
    position: fixed
    class: open top-right anchor-bottom-right
    size: [30, 10]
popovers:
  - {id: menu, anchor: button}
steps:
  - {action: set-frame, target: button, frame: [200, 50, 40, 20]}
  - {action: place, target: menu}
`

func writeScene(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func plainFormatter() report.Formatter {
	return report.NewFormatter(report.FormatPlain, report.DefaultFormatterOptions())
}

// plainFormatterFor follows the precision of c like the CLI formatter does.
func plainFormatterFor(c *config.Config) (report.Formatter, error) {
	opts := report.DefaultFormatterOptions()
	opts.Precision = c.Placement.Precision
	return report.NewFormatter(report.FormatPlain, opts), nil
}

func menuFields(t *testing.T, out string) []string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "menu ") {
			return strings.Fields(line)
		}
	}
	t.Fatalf("no menu line in:\n%s", out)
	return nil
}

func TestRunScene(t *testing.T) {
	r, err := runScene(writeScene(t, cliScene), nil)
	require.NoError(t, err)

	assert.Equal(t, "menu.yaml", r.Scene)
	require.Len(t, r.Frames, 3)
	assert.Equal(t, 110.0, r.Frames[0].Popovers[0].Left)
	assert.Equal(t, 110.0, r.Frames[1].Popovers[0].Left)
	assert.Equal(t, 210.0, r.Frames[2].Popovers[0].Left)
	assert.Equal(t, "place menu", r.Frames[2].Label)
}

func TestRunScene_Precision(t *testing.T) {
	c := config.DefaultConfig()
	c.Placement.Precision = 0

	r, err := runScene(writeScene(t, cliScene), c)
	require.NoError(t, err)
	assert.Equal(t, 210.0, r.Frames[2].Popovers[0].Left)
}

func TestRunScene_MissingFile(t *testing.T) {
	r, err := runScene(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlaceScene_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, placeScene(&buf, writeScene(t, cliScene), nil, plainFormatter()))

	out := buf.String()
	assert.Contains(t, out, "after 2nd step: place menu (window 800x600)")
	assert.Equal(t, []string{"menu", "button", "open", "210", "70", "30x10", "none"}, menuFields(t, out)[:7])
	assert.Contains(t, out, "1 popover,")
}

func TestPlaceScene_FailingStepKeepsEarlierFrames(t *testing.T) {
	src := cliScene + "  - {action: add-class, target: ghost, class: open}\n"
	var buf bytes.Buffer

	err := placeScene(&buf, writeScene(t, src), nil, plainFormatter())
	require.Error(t, err)
	assert.ErrorIs(t, err, scene.ErrUnknownTarget)
	assert.Contains(t, buf.String(), "after 2nd step: place menu")
}

// syncBuffer is written by the watch loop while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startWatch runs watchScene in the background and returns its output and a
// stop function that cancels it and waits for it to return.
func startWatch(t *testing.T, path, cfgPath string) (*syncBuffer, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- watchScene(ctx, out, path, cfgPath, plainFormatterFor)
	}()

	stop := func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not stop after cancel")
		}
	}
	return out, stop
}

func TestWatchScene_RerunsOnChange(t *testing.T) {
	path := writeScene(t, cliScene)
	cfgPath := filepath.Join(filepath.Dir(path), "config.toml")

	out, stop := startWatch(t, path, cfgPath)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "place menu")
	}, 2*time.Second, 10*time.Millisecond)

	moved := strings.Replace(cliScene, "[200, 50, 40, 20]", "[300, 50, 40, 20]", 1)
	require.NoError(t, os.WriteFile(path, []byte(moved), 0644))

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "--- menu.yaml changed ---") && strings.Contains(s, " 310 ")
	}, 5*time.Second, 20*time.Millisecond)

	stop()
}

func TestWatchScene_MissingConfigDirectory(t *testing.T) {
	path := writeScene(t, cliScene)
	cfgPath := filepath.Join(t.TempDir(), "nope", "popanchor", "config.toml")

	out, stop := startWatch(t, path, cfgPath)
	defer stop()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "place menu")
	}, 2*time.Second, 10*time.Millisecond)

	moved := strings.Replace(cliScene, "[200, 50, 40, 20]", "[300, 50, 40, 20]", 1)
	require.NoError(t, os.WriteFile(path, []byte(moved), 0644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), " 310 ")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchScene_ConfigReloadUpdatesPrecision(t *testing.T) {
	src := cliScene
	path := writeScene(t, src)
	cfgPath := filepath.Join(filepath.Dir(path), "config.toml")

	out, stop := startWatch(t, path, cfgPath)
	defer stop()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "place menu")
	}, 2*time.Second, 10*time.Millisecond)

	fractional := strings.Replace(src, "[200, 50, 40, 20]", "[200, 50, 40.4, 20]", 1)
	require.NoError(t, os.WriteFile(path, []byte(fractional), 0644))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), " 210.4 ")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(cfgPath, []byte("[placement]\nprecision = 0\n"), 0644))
	require.Eventually(t, func() bool {
		s := out.String()
		i := strings.Index(s, "--- config.toml changed ---")
		return i >= 0 && strings.Contains(s[i:], " 210 ")
	}, 5*time.Second, 20*time.Millisecond)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "popanchor", "config.toml")

	require.NoError(t, initConfig(path, false))
	c, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), c)

	err = initConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, initConfig(path, true))
}

func TestWriteConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, nil))

	out := buf.String()
	assert.Contains(t, out, "[placement]")
	assert.Contains(t, out, "id_prefix = ")
	assert.Contains(t, out, "popover-")
	assert.Contains(t, out, "[watch]")
}

func TestNewFormatter(t *testing.T) {
	placeOpts.format = "yaml"
	_, err := newFormatter(nil)
	assert.Error(t, err)

	placeOpts.format = "json"
	f, err := newFormatter(config.DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &report.JSONFormatter{}, f)
	placeOpts.format = "plain"
}
