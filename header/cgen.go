package header

import (
	"fmt"
	"strings"
)

// cgen accumulates C source lines. A nested cgen is rendered one indent
// level deeper than its parent.
type cgen struct {
	indent  int
	entries []any
}

func newCGen() *cgen {
	return &cgen{}
}

func (g *cgen) add(format string, args ...any) {
	g.entries = append(g.entries, fmt.Sprintf(format, args...))
}

func (g *cgen) raw(line string) {
	g.entries = append(g.entries, line)
}

func (g *cgen) newline(n int) {
	for i := 0; i < n; i++ {
		g.entries = append(g.entries, "")
	}
}

func (g *cgen) include(path string) {
	g.add("#include %s", path)
}

func (g *cgen) define(name string, value ...any) {
	if len(value) == 0 {
		g.add("#define %s", name)
		return
	}

	g.add("#define %s %v", name, value[0])
}

// block opens a brace block after head. With ownLine the opening brace gets
// its own line, otherwise it ends the head line.
func (g *cgen) block(head string, ownLine bool, body func(b *cgen)) {
	if ownLine {
		g.raw(head)
		g.raw("{")
	} else {
		g.raw(head + " {")
	}

	sub := &cgen{indent: g.indent + 1}
	body(sub)

	g.entries = append(g.entries, sub)
	g.raw("}")
}

func (g *cgen) lines() []string {
	var lines []string

	prefix := strings.Repeat("\t", g.indent)

	for _, e := range g.entries {
		switch e := e.(type) {
		case *cgen:
			lines = append(lines, e.lines()...)
		case string:
			lines = append(lines, strings.TrimRight(prefix+e, " \t\n"))
		}
	}

	return lines
}

// generate wraps the lines in a header guard and renders them.
func (g *cgen) generate(guard string) string {
	lines := []string{
		"#ifndef " + guard,
		"#define " + guard,
		"",
	}
	lines = append(lines, g.lines()...)
	lines = append(lines, "", fmt.Sprintf("#endif /* %s */", guard))

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
