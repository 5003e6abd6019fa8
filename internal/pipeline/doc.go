// Package pipeline implements the deterministic text stages that turn
// request sections into Typst sources ready for compilation:
//   - Markdown assembly per language (cover letter, sections, page breaks,
//     language fallback, frontmatter stripping)
//   - Diagram reference rewriting to workspace-local file names
//   - Post-processing of converter output (repeating table headers,
//     proportional columns, bounded image width, page breaks, preamble)
//   - Template rendering with escaped Typst string literals
//
// External tools are driven separately by the toolchain package; every
// function here is pure and safe for concurrent use.
package pipeline
