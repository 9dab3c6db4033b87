package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-resume2pdf/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{"valid extension html", "html", nil},
		{"valid extension pdf", "pdf", nil},
		{"empty extension", "", fileutil.ErrExtensionEmpty},
		{"forward slash path traversal", "../etc/passwd", fileutil.ErrExtensionPathTraversal},
		{"backslash path traversal", "..\\windows\\system32", fileutil.ErrExtensionPathTraversal},
		{"null byte injection", "html\x00exe", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temporary file creation
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		extension string
	}{
		{"html file", "<html><body>张三</body></html>", "html"},
		{"empty content", "", "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, cleanup, err := fileutil.WriteTempFile(tt.content, tt.extension)
			if err != nil {
				t.Fatalf("WriteTempFile() error = %v", err)
			}
			defer cleanup()

			if !strings.Contains(filepath.Base(path), "resume2pdf-") {
				t.Errorf("path %q does not contain prefix 'resume2pdf-'", path)
			}
			if !strings.HasSuffix(path, "."+tt.extension) {
				t.Errorf("path %q does not have extension .%s", path, tt.extension)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read temp file: %v", err)
			}
			if string(data) != tt.content {
				t.Errorf("file content = %q, want %q", string(data), tt.content)
			}
		})
	}
}

func TestWriteTempFile_Cleanup(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.ReserveTempFile("pdf")
	if err != nil {
		t.Fatalf("ReserveTempFile() error = %v", err)
	}
	if !fileutil.FileExists(path) {
		t.Fatalf("temp file does not exist at %s", path)
	}

	cleanup()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("temp file still exists after cleanup at %s", path)
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, cleanup, err := fileutil.WriteTempFile("content", "../foo")
	if cleanup != nil {
		defer cleanup()
	}
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("WriteTempFile() error = %v, want ErrExtensionPathTraversal", err)
	}
}

// ---------------------------------------------------------------------------
// TestFileExists - File existence check
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "resume.md")
	if err := os.WriteFile(testFile, []byte("# Jane"), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file returns true", testFile, true},
		{"directory returns false", tempDir, false},
		{"nonexistent path returns false", filepath.Join(tempDir, "nonexistent"), false},
		{"empty path returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := fileutil.FileExists(tt.path); got != tt.want {
				t.Errorf("FileExists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestIsMarkdown / TestOutputPath - Path helpers
// ---------------------------------------------------------------------------

func TestIsMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"resume.md", true},
		{"RESUME.MD", true},
		{"cv.markdown", true},
		{"resume.txt", false},
		{"md", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := fileutil.IsMarkdown(tt.path); got != tt.want {
			t.Errorf("IsMarkdown(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, outDir, ext, want string
	}{
		{filepath.Join("cv", "resume.md"), "", ".pdf", filepath.Join("cv", "resume.pdf")},
		{filepath.Join("cv", "resume.md"), "out", ".pdf", filepath.Join("out", "resume.pdf")},
		{"notes", "", ".html", "notes.html"},
		{"简历.md", "", ".pdf", "简历.pdf"},
	}
	for _, tt := range tests {
		if got := fileutil.OutputPath(tt.input, tt.outDir, tt.ext); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tt.input, tt.outDir, tt.ext, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - Atomic replace
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := fileutil.WriteFileAtomic(path, []byte("%PDF-new"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-new" {
		t.Errorf("content = %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the target", len(entries))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	t.Parallel()

	err := fileutil.WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "out.pdf"), []byte("x"), 0o644)
	if err == nil || !strings.Contains(err.Error(), "creating temp file") {
		t.Errorf("err = %v, want creating temp file error", err)
	}
}
