package desk

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

// macroPattern matches one inclusion directive anchored at end of line:
//
//	// !code vendor/underscore.js
//
// Group 1 is the literal directive text, group 2 the referenced path.
var macroPattern = regexp.MustCompile(`(?m)(//[ \t]*!code[ \t]+([\w./-]+)[ \t]*)$`)

// expandMacros splices every referenced file into body, bracketing each
// inclusion with marker comments. Resolution tries the document's own
// subtree first, then the shared root (a global macro). A reference that
// resolves nowhere is fatal: the assembled document would otherwise be
// silently incomplete.
//
// Expansion is a single pass over the original text; included content is
// not re-scanned for further directives.
func (d *Desk) expandMacros(doc, from, body string) (string, error) {
	matches := macroPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, nil
	}

	var b strings.Builder
	b.Grow(len(body) * 2)
	end := 0
	for _, m := range matches {
		directive := body[m[2]:m[3]]
		ref := body[m[4]:m[5]]

		content, err := d.resolveMacro(doc, ref)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("code file %q not found on desk; referenced by %s :: '%s'", ref, from, directive)
			}
			return "", fmt.Errorf("failed to include %q referenced by %s: %w", ref, from, err)
		}

		b.WriteString(body[end:m[2]])
		b.WriteString("// ==> " + ref + "\n")
		b.WriteString(content)
		b.WriteString("\n")
		b.WriteString("// <== " + ref + "\n")
		end = m[3]
	}
	b.WriteString(body[end:])
	return b.String(), nil
}

// resolveMacro reads the referenced file, trying the document-local path
// before the global one.
func (d *Desk) resolveMacro(doc, ref string) (string, error) {
	data, err := d.readResource(path.Join(d.cfg.Root, doc, ref))
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	data, err = d.readResource(path.Join(d.cfg.Root, ref))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
