// Package assets provides the Typst templates used to lay out documents.
//
// Two layouts exist: single.typ for one-language documents and
// bilingual.typ for the combined document (cover page, one scoped outline
// per language, both content blocks). Both are compiled into the binary.
// An operator may override either by placing a file of the same name in
// assets.templateDir; a Resolver checks that directory first and falls
// back to the built-in copy only when the file is absent there.
//
// Templates are text/template sources. Every value injected into them is
// already a quoted Typst string literal, so templates must use values in
// code position (#let x = {{ typst .Title }}), never spliced into markup.
//
// Template names are bare identifiers. DirLoader follows symlinks but
// refuses any that resolve outside the override directory.
package assets
