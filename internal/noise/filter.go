package noise

import (
	"strings"

	"github.com/platformbuilds/jitdirectives/internal/signature"
)

// DynamicStubMarker prefixes the declaring type of runtime-emitted stubs.
const DynamicStubMarker = "(dynamicClass)"

// Filter holds an ordered rule table. The zero value has no type rules and
// only rejects dynamic stubs.
type Filter struct {
	rules []Rule
}

// New returns a filter with the default rules followed by extra.
func New(extra ...Rule) *Filter {
	rules := DefaultRules()
	for _, r := range extra {
		if r.Reason == ReasonNone {
			r.Reason = ReasonCustom
		}
		rules = append(rules, r)
	}
	return &Filter{rules: rules}
}

// Rules returns a copy of the rule table.
func (f *Filter) Rules() []Rule {
	return append([]Rule(nil), f.rules...)
}

// Check reports whether id should be kept and, if not, which rule rejected
// it. declaringType is the resolver's display name of the declaring type;
// empty means unknown.
func (f *Filter) Check(id signature.Identity, declaringType string, access Accessibility) (bool, Reason) {
	if declaringType == "" || strings.HasPrefix(declaringType, DynamicStubMarker) {
		return false, ReasonDynamicStub
	}
	for _, r := range f.rules {
		if r.matches(id.TypeName, access) {
			return false, r.Reason
		}
	}
	return true, ReasonNone
}

// Keep is Check without the reason.
func (f *Filter) Keep(id signature.Identity, declaringType string, access Accessibility) bool {
	keep, _ := f.Check(id, declaringType, access)
	return keep
}
