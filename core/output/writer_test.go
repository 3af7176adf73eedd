package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeExtension(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want string
	}{
		{path: "page.mht", ext: ".html", want: "page.html"},
		{path: "dir/page.mhtml", ext: "html", want: "dir/page.html"},
		{path: "archive", ext: ".html", want: "archive.html"},
		{path: "a.b/page.MHT", ext: ".md", want: "a.b/page.md"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ChangeExtension(tt.path, tt.ext))
		})
	}
}

func TestWriter(t *testing.T) {
	t.Run("Should place output next to the source by default", func(t *testing.T) {
		w, err := New("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("in", "page.html"), w.DestinationPath(filepath.Join("in", "page.mht"), ".html"))
	})

	t.Run("Should place output in the output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		w, err := New(dir)
		require.NoError(t, err)
		assert.DirExists(t, dir)
		assert.Equal(t, filepath.Join(dir, "page.html"), w.DestinationPath(filepath.Join("in", "page.mht"), ".html"))
	})

	t.Run("Should write the file and leave no temp files", func(t *testing.T) {
		dir := t.TempDir()
		w, err := New(dir)
		require.NoError(t, err)

		path := filepath.Join(dir, "page.html")
		require.NoError(t, w.Write(path, []byte("<p>x</p>")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<p>x</p>", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Should fail without creating the file when the directory is missing", func(t *testing.T) {
		w := &Writer{}
		path := filepath.Join(t.TempDir(), "missing", "page.html")
		assert.Error(t, w.Write(path, []byte("x")))
		assert.NoFileExists(t, path)
	})
}
