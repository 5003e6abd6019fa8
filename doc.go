// Package docpress compiles structured document requests into PDFs by
// driving pandoc and typst.
//
// # Quick Start
//
// Create a pipeline from a configuration and compile a request:
//
//	p, err := docpress.New(config.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := p.Compile(ctx, &docpress.DocumentRequest{
//	    Mode:     docpress.ModeSingle,
//	    Title:    "Report",
//	    Sections: []docpress.Section{{Label: "Intro", ContentEn: "# Hello"}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("report.pdf", res.Combined.PDF, 0o644)
//
// # Compile Pipeline
//
// Each language goes through the same stages:
//
//  1. Assembly of cover letter and sections, with language fallback
//  2. Diagram reference rewriting to workspace-local SVG names
//  3. Markdown to Typst conversion via pandoc
//  4. Post-processing of the generated Typst (tables, images, page breaks)
//  5. Template rendering with escaped metadata
//  6. PDF compilation via typst in an isolated workspace
//
// Bilingual requests produce three PDFs: one per language and a combined
// document with a cover page and one table of contents per language. The
// three compiles run concurrently by default and fail together.
//
// # Errors
//
// Validation failures wrap ErrValidation. Tool failures carry a *ToolError
// with the tool's diagnostics. Workspace failures wrap ErrWorkspace. ErrBusy
// means the caller gave up while waiting for a compile slot.
//
// # Requirements
//
// pandoc and typst must be installed. Run "docpress doctor" to check.
package docpress
