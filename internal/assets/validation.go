package assets

import (
	"fmt"
	"strings"
)

// maxTemplateNameLength bounds template names.
const maxTemplateNameLength = 64

// ValidateTemplateName checks that name is a bare template name: non-empty,
// short, and free of separators or dots (extensions are added by loaders).
func ValidateTemplateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTemplateName)
	}
	if len(name) > maxTemplateNameLength {
		return fmt.Errorf("%w: %d chars (max %d)", ErrInvalidTemplateName, len(name), maxTemplateNameLength)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidTemplateName, name)
	}
	return nil
}
