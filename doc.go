// Package resume2pdf converts Markdown résumés to PDF, optionally shrinking
// the layout so the whole résumé fits on one page.
//
// # Quick Start
//
//	conv, err := resume2pdf.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, resume2pdf.Input{
//	    Markdown:     source,
//	    SmartOnePage: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("resume.pdf", result.PDF, 0o644)
//
// # Input Format
//
// The first level-1 heading is the candidate's name. Email, phone and a
// labelled address ("Address: ...", "地址：...") are picked up anywhere in
// the text. Each level-2 heading opens a section; its kind (education,
// experience, skills, projects, certificates) is inferred from the title in
// English or Chinese. List items and paragraphs become the section's items.
//
// # Conversion Pipeline
//
//  1. Parse the Markdown into a typed document (never fails)
//  2. Estimate the rendered height against the base stylesheet
//  3. In single-page mode, derive a compression ratio in [0.55, 1.0] and a tier
//  4. Generate the scaled stylesheet
//  5. Render with the native PDF writer or through a headless HTML engine
//
// Non-fatal conditions (partial parse, missing fonts, overflow) are returned
// as Result.Warnings next to a valid PDF.
//
// # Backends
//
// BackendNative is pure Go and needs nothing installed. BackendHTML prints
// styled HTML with rod (default), chromedp or wkhtmltopdf; select the engine
// with WithEngineName. Engine failures and timeouts surface as
// ErrBackendUnavailable, and callers may retry with the other backend.
//
// # Parallel Processing
//
//	pool := resume2pdf.NewConverterPool(resume2pdf.ResolvePoolSize(0))
//	defer pool.Close()
//
//	conv, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # Browser Requirements
//
// The rod engine downloads a managed Chromium on first use
// (~/.cache/rod/browser/). Set ROD_BROWSER_BIN to use an installed browser;
// the sandbox is disabled automatically when it is set or when CI=true.
package resume2pdf
