// Package noise decides which compiled methods are worth reporting.
package noise

import "strings"

// Accessibility of the compiled method as reported by the resolver.
type Accessibility int

const (
	Public Accessibility = iota
	Private
)

// Access maps a private flag to an Accessibility.
func Access(private bool) Accessibility {
	if private {
		return Private
	}
	return Public
}

// Constraint restricts a rule to methods of a given accessibility.
type Constraint int

const (
	AnyAccess Constraint = iota
	PrivateOnly
)

func (c Constraint) matches(a Accessibility) bool {
	return c == AnyAccess || a == Private
}

// Reason names the rule that rejected a method.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonDynamicStub          Reason = "dynamic_stub"
	ReasonCompilerGenerated    Reason = "compiler_generated"
	ReasonRuntimeHelper        Reason = "runtime_helper"
	ReasonImplementationDetail Reason = "implementation_detail"
	ReasonCustom               Reason = "custom"
)

// Rule rejects a type name that starts with Prefix and, when set, contains
// Contains, for methods allowed by Access.
type Rule struct {
	Prefix   string
	Contains string
	Access   Constraint
	Reason   Reason
}

func (r Rule) matches(typeName string, access Accessibility) bool {
	if !strings.HasPrefix(typeName, r.Prefix) {
		return false
	}
	if r.Contains != "" && !strings.Contains(typeName, r.Contains) {
		return false
	}
	return r.Access.matches(access)
}

// DefaultRules is the built-in table, in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		// async state machines and builders
		{Prefix: "System.Runtime.CompilerServices", Reason: ReasonCompilerGenerated},
		{Prefix: "System.Runtime.CompilerServices.AsyncMethodBuilderCore", Reason: ReasonCompilerGenerated},
		{Prefix: "System.Runtime.CompilerServices.AsyncValueTaskMethodBuilder", Reason: ReasonCompilerGenerated},
		{Prefix: "System.Runtime.CompilerServices.PoolingAsyncValueTaskMethodBuilder", Reason: ReasonCompilerGenerated},
		{Prefix: "System.Runtime.CompilerServices.ValueTaskAwaiter", Reason: ReasonCompilerGenerated},

		{Prefix: "System.Runtime.CompilerServices.RuntimeHelpers", Access: PrivateOnly, Reason: ReasonRuntimeHelper},

		// coreclr implementation details
		{Prefix: "System.Collections.Generic.ArraySortHelper", Reason: ReasonImplementationDetail},
		{Prefix: "System.Collections.Generic.GenericArraySortHelper", Reason: ReasonImplementationDetail},
		{Prefix: "System.SZArrayHelper", Reason: ReasonImplementationDetail},
		{Prefix: "System.Linq", Access: PrivateOnly, Reason: ReasonImplementationDetail},
		{Prefix: "System.Collections", Contains: "+Enumerator", Reason: ReasonImplementationDetail},
		{Prefix: "System.Collections.Immutable.SecureObjectPool", Reason: ReasonImplementationDetail},
	}
}
