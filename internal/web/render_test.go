package web

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)

	for _, page := range []string{
		"home", "milestones", "screening", "appointments", "training", "community",
		"journal", "ai_insights", "activity_generator", "ai_training",
		"profile_management", "profile_detail", "profile_delete", "not_found", "assistant",
	} {
		assert.True(t, r.Has(page), page)
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "missing", nil)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "components"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("layout.tmpl", `{{define "layout"}}<main>{{template "content" .}}</main>{{end}}`)
	write("components/bits.tmpl", `{{define "shout"}}{{.}}!{{end}}`)
	write("pages/a.tmpl", `{{define "content"}}A {{template "shout" .}}{{end}}`)
	write("pages/b.tmpl", `{{define "content"}}B {{title .}}{{end}}`)

	r, err := Load(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "a", "hi"))
	assert.Equal(t, "<main>A hi!</main>", buf.String())

	buf.Reset()
	require.NoError(t, r.Render(&buf, "b", "not-started"))
	assert.Equal(t, "<main>B Not Started</main>", buf.String())

	buf.Reset()
	require.NoError(t, r.RenderPartial(&buf, "a", "shout", "x"))
	assert.Equal(t, "x!", buf.String())
}

func TestLoadFailsWithoutPages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "components"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layout.tmpl"), []byte(`{{define "layout"}}{{end}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "components", "x.tmpl"), []byte(`{{define "x"}}{{end}}`), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
