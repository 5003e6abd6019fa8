// Package toolchain adapts the external tools the pipeline shells out to:
// pandoc (markdown to Typst markup) and typst (markup to PDF).
//
// All invocations go through CommandRunner so tests can substitute a mock.
// ExecRunner starts each tool in its own process group, bounds it with the
// caller's context and kills the whole group when that context ends.
package toolchain
