// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

// Package signature parses runtime-generated fully-qualified .NET method
// signatures into type, method and parameter parts.
package signature

import "strings"

const (
	// CanonPlaceholder is emitted by the runtime for reference-type arguments
	// in code shared across generic instantiations.
	CanonPlaceholder = "System.__Canon"
	// ObjectTypeName replaces CanonPlaceholder in every parsed field.
	ObjectTypeName = "System.Object"
)

var (
	ctorMarker  = ".ctor("
	cctorMarker = ".cctor("
)

// Identity is the parsed form of a raw method signature.
type Identity struct {
	TypeName      string
	MethodName    string
	ParameterText string
}

// DisplayName is the method name including its generic group, without parameters.
func (id Identity) DisplayName() string {
	return id.MethodName
}

// IsTopLevel reports whether the signature had no declaring type qualifier.
func (id Identity) IsTopLevel() bool {
	return id.TypeName == ""
}

func (id Identity) String() string {
	var b strings.Builder
	if id.TypeName != "" {
		b.WriteString(id.TypeName)
		b.WriteByte('.')
	}
	b.WriteString(id.MethodName)
	b.WriteByte('(')
	b.WriteString(id.ParameterText)
	b.WriteByte(')')
	return b.String()
}

// Canonicalize rewrites the shared-generic placeholder to System.Object.
func Canonicalize(s string) string {
	if !strings.Contains(s, CanonPlaceholder) {
		return s
	}
	return strings.ReplaceAll(s, CanonPlaceholder, ObjectTypeName)
}

// Parse splits a raw signature such as
// "Ns.List`1[System.__Canon].Add(System.__Canon)" into its parts. It never
// fails; input without a qualifier yields an empty TypeName.
func Parse(raw string) Identity {
	res := scan(raw)

	typeSig, methodSig := "", raw
	if res.split > 0 {
		typeSig = raw[:res.split-1]
		methodSig = raw[res.split:]
	}
	if res.truncate >= 0 && res.truncate < len(typeSig) {
		typeSig = typeSig[:res.truncate]
	}

	methodName, params := methodSig, ""
	if p := strings.IndexByte(methodSig, '('); p >= 0 {
		methodName = methodSig[:p]
		params = strings.TrimSuffix(methodSig[p+1:], ")")
	}

	return Identity{
		TypeName:      Canonicalize(typeSig),
		MethodName:    Canonicalize(methodName),
		ParameterText: Canonicalize(params),
	}
}
