// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package signature

import "strings"

// GenericArguments extracts the comma separated elements of the bracket
// groups in name. Only commas directly inside the outer group separate
// elements; a bracket layer enclosing a whole element is stripped.
//
//	GenericArguments("Compute[System.Int32,System.String]")
//	  => ["System.Int32", "System.String"]
//	GenericArguments("Compute[[System.Int32, System.Private.CoreLib]]")
//	  => ["System.Int32, System.Private.CoreLib"]
func GenericArguments(name string) []string {
	var (
		args  []string
		depth int
		start = -1
	)
	flush := func(end int) {
		if arg := trimElement(name[start:end]); arg != "" {
			args = append(args, Canonicalize(arg))
		}
	}

	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '[':
			depth++
			if depth == 1 {
				start = i + 1
			}
		case ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				flush(i)
			}
		case ',':
			if depth == 1 {
				flush(i)
				start = i + 1
			}
		}
	}
	return args
}

// SplitGenericGroup returns name without its first bracket group, along with
// the arguments in that group. Names without a group are returned unchanged.
func SplitGenericGroup(name string) (string, []string) {
	open := strings.IndexByte(name, '[')
	if open < 0 {
		return name, nil
	}
	return name[:open], GenericArguments(name[open:])
}

func trimElement(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
