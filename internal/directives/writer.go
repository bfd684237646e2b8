// Package directives renders a settled directory as an rd.xml style
// runtime directives document.
package directives

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/platformbuilds/jitdirectives/internal/directory"
	"github.com/platformbuilds/jitdirectives/internal/signature"
)

const indent = "    "

var escaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Escape replaces angle brackets with their entities and leaves every other
// character alone.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Write renders snap to w. An empty snapshot writes nothing.
func Write(w io.Writer, snap directory.Snapshot) error {
	if snap.Empty() {
		return nil
	}

	bw := bufio.NewWriter(w)
	line := func(depth int, format string, args ...any) {
		bw.WriteString(strings.Repeat(indent, depth))
		fmt.Fprintf(bw, format, args...)
		bw.WriteByte('\n')
	}

	line(0, "<Directives>")
	line(1, "<Application>")
	for _, a := range snap.Assemblies {
		line(2, `<Assembly Name="%s">`, Escape(a.Name))
		for _, t := range a.Types {
			line(3, `<Type Name="%s">`, Escape(t.Name))
			for _, m := range t.Methods {
				name, args := signature.SplitGenericGroup(m)
				if len(args) == 0 {
					line(4, `<Method Name="%s" />`, Escape(name))
					continue
				}
				line(4, `<Method Name="%s">`, Escape(name))
				for _, arg := range args {
					line(5, `<GenericArgument Name="%s" />`, Escape(arg))
				}
				line(4, "</Method>")
			}
			line(3, "</Type>")
		}
		line(2, "</Assembly>")
	}
	line(1, "</Application>")
	line(0, "</Directives>")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write directives: %w", err)
	}
	return nil
}

// Render returns the document as a string.
func Render(snap directory.Snapshot) string {
	var b strings.Builder
	_ = Write(&b, snap)
	return b.String()
}
