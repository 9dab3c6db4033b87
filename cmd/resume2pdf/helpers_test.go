package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleResume = `# Jane Doe

jane@example.com | +1 555 123 4567

## Experience

- Senior Engineer, Acme Corp, 2020-2024
- Built the billing platform

## Education

- BSc Computer Science, State University

## Skills

- Go, SQL, Kubernetes
`

// massiveResume returns a resume far too long for one page.
func massiveResume(items int) string {
	var b strings.Builder
	b.WriteString("# Jane Doe\n\njane@example.com\n\n## Experience\n\n")
	for i := range items {
		fmt.Fprintf(&b, "- Role %d: shipped a long list of features that nobody will ever read in full\n", i)
	}
	return b.String()
}

// testEnv returns an environment with captured output and an empty
// environment, so host variables never leak into tests.
func testEnv(stdin string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(string) string { return "" },
	}
	return env, &stdout, &stderr
}

// writeFile creates dir/name with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// readPDF reads path and fails unless it holds a PDF.
func readPDF(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("%s is not a PDF: %q", path, data[:min(len(data), 16)])
	}
	return data
}
