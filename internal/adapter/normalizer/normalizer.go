// Package normalizer reduces free-form dCache status messages to a small
// set of templates so they can be used as a metric label.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
)

// Replacement decides what a matched span is rewritten to. A rule uses
// either a constant placeholder or a function of the match.
type Replacement struct {
	constant   string
	contextual func(m Match) string
}

// Constant replaces every match with text.
func Constant(text string) Replacement { return Replacement{constant: text} }

// Contextual replaces every match with the result of fn.
func Contextual(fn func(m Match) string) Replacement { return Replacement{contextual: fn} }

func (r Replacement) apply(m Match) string {
	if r.contextual != nil {
		return r.contextual(m)
	}
	return r.constant
}

// Match is one regexp match within the message being rewritten.
type Match struct {
	re     *regexp.Regexp
	src    string
	groups []int
}

// Text returns the whole matched span.
func (m Match) Text() string { return m.src[m.groups[0]:m.groups[1]] }

// Group returns the text of a named capture group, or "" if it did not
// participate in the match.
func (m Match) Group(name string) string {
	i := m.re.SubexpIndex(name)
	if i < 0 || m.groups[2*i] < 0 {
		return ""
	}
	return m.src[m.groups[2*i]:m.groups[2*i+1]]
}

// Rule is a named substitution.
type Rule struct {
	Name        string
	re          *regexp.Regexp
	replacement Replacement
}

// NewRule compiles pattern into a rule. A nil replacement means the
// constant placeholder "<name>".
func NewRule(name, pattern string, replacement *Replacement) Rule {
	r := Rule{Name: name, re: regexp.MustCompile(pattern)}
	if replacement == nil {
		r.replacement = Constant("<" + name + ">")
	} else {
		r.replacement = *replacement
	}
	return r
}

// Rewrite replaces every non-overlapping match in msg.
func (r Rule) Rewrite(msg string) string {
	locs := r.re.FindAllStringSubmatchIndex(msg, -1)
	if len(locs) == 0 {
		return msg
	}
	var b strings.Builder
	b.Grow(len(msg))
	last := 0
	for _, loc := range locs {
		b.WriteString(msg[last:loc[0]])
		b.WriteString(r.replacement.apply(Match{re: r.re, src: msg, groups: loc}))
		last = loc[1]
	}
	b.WriteString(msg[last:])
	return b.String()
}

// Normalizer applies an ordered rule list. Each rule sees the output of
// the previous one. It holds no state besides the compiled rules and is
// safe for concurrent use.
type Normalizer struct {
	rules []Rule
}

// New returns a Normalizer with the default dCache rule table.
func New() *Normalizer {
	return &Normalizer{rules: DefaultRules()}
}

// NewWithRules returns a Normalizer applying rules in the given order.
func NewWithRules(rules []Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Normalize rewrites msg through every rule in order.
func (n *Normalizer) Normalize(msg string) string {
	for _, rule := range n.rules {
		msg = rule.Rewrite(msg)
	}
	return msg
}

// Rules returns the rule names in application order.
func (n *Normalizer) Rules() []string {
	names := make([]string, len(n.rules))
	for i, r := range n.rules {
		names[i] = r.Name
	}
	return names
}

// domainName keeps dotted names whose last label has an upper-case letter,
// which are Java class names in stack traces rather than hosts.
func domainName(m Match) string {
	if strings.IndexFunc(m.Group("last"), unicode.IsUpper) >= 0 {
		return m.Text()
	}
	return "<domain-name>"
}

// DefaultRules returns the rule table for dCache status messages.
// Order matters: URLs must go before paths and addresses, and integers last.
func DefaultRules() []Rule {
	dns := Contextual(domainName)
	return []Rule{
		NewRule("url", `\w+://[^[:space:]]+[^[:space:],.;:?()\[\]]`, nil),
		NewRule("pool-name", `PoolName=[[:alnum:]_-]+`, nil),
		NewRule("pool-address", `PoolAddress=[[:alnum:]_@/-]+`, nil),
		NewRule("quoted-ref", `>[[:alnum:]_@][[:alnum:]_@-]*<`, nil),
		NewRule("date-and-time", `(Mon|Tue|Wed|Thu|Fri|Sat|Sun) \w{3} \d+ \d{2}:\d{2}:\d{2} \w+ \d{4}`, nil),
		NewRule("checksum", `\[\d+:[[:xdigit:]]+\]`, nil),
		NewRule("ipv4-address-and-port", `\b\d+(\.\d+){3}:\d+`, nil),
		NewRule("ipv4-address", `\b\d+(\.\d+){3}`, nil),
		NewRule("ipv6-address-and-port", `\[[0-9a-f]+(:[0-9a-f]+)+\]:\d+\b`, nil),
		NewRule("ipv6-address", `\[[0-9a-f]+(:[0-9a-f]+)+\]`, nil),
		NewRule("ipv6-address", `\b[0-9a-f]+(:[0-9a-f]+)+`, nil),
		NewRule("dcache-cell", `\[>[[:alnum:]_:.@-]*\]`, nil),
		NewRule("size", `\b\d+(\.\d+)? ([kMGTE]i?)?B\b`, nil),
		NewRule("distinguished-name", `\b(\w+=([^,]|\\,)+,)+(?i:CN|DC|C)=\w+\b`, nil),
		NewRule("pnfsid", `\b[0-9A-F]{36}\b`, nil),
		NewRule("path", `\B/[^ <>]+\b`, nil),
		NewRule("dns-domain", `\b([a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+(?P<last>[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)\b`, &dns),
		NewRule("int", `\b\d+\b`, nil),
	}
}
