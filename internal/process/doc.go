// Package process terminates external engine processes together with the
// children they spawn (browser renderers, wkhtmltopdf helpers).
package process
