package sample

import (
	"regexp"
	"strings"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// RegexpPrefix marks a query value as a regular expression.
const RegexpPrefix = "re:"

type matcher func(value string) bool

// compileValue turns one query value into a matcher:
//
//   - "re:<expr>" is an unanchored Go regular expression,
//   - a value containing * or ? is a wildcard matched against the whole field,
//   - anything else must equal the whole field.
//
// All matching is case-sensitive.
func compileValue(key, value string) (matcher, error) {
	if expr, ok := strings.CutPrefix(value, RegexpPrefix); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, keyring.Invalid(key, err.Error())
		}
		return re.MatchString, nil
	}
	if strings.ContainsAny(value, "*?") {
		re, err := regexp.Compile(wildcardToRegexp(value))
		if err != nil {
			return nil, keyring.Invalid(key, err.Error())
		}
		return re.MatchString, nil
	}
	return func(field string) bool { return field == value }, nil
}

// wildcardToRegexp translates * and ? into an anchored expression,
// quoting everything else.
func wildcardToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	var literal strings.Builder
	flush := func() {
		b.WriteString(regexp.QuoteMeta(literal.String()))
		literal.Reset()
	}
	for _, r := range pattern {
		switch r {
		case '*':
			flush()
			b.WriteString("(?s:.*)")
		case '?':
			flush()
			b.WriteString("(?s:.)")
		default:
			literal.WriteRune(r)
		}
	}
	flush()
	b.WriteString("$")
	return b.String()
}

// field returns the value of a searchable field of rec.
func field(id credID, rec *record, key string) (string, bool) {
	switch key {
	case "service":
		return id.service, true
	case "user":
		return id.user, true
	case "uuid":
		return rec.uuid, true
	case "comment":
		return rec.comment, true
	default:
		return rec.mods.Get(key)
	}
}

// Search returns wrappers for every record matching all query terms.
// Query keys are "service", "user", "uuid", "comment" or a modifier key.
// Results are ordered by service, then user, then creation.
func (s *Store) Search(query map[string]string) ([]*keyring.Entry, error) {
	matchers := make(map[string]matcher, len(query))
	for k, v := range query {
		if k == "" {
			return nil, keyring.Invalid("query", "empty key")
		}
		m, err := compileValue(k, v)
		if err != nil {
			return nil, err
		}
		matchers[k] = m
	}

	entries := []*keyring.Entry{}
	for _, ib := range s.snapshotBuckets() {
		ib.b.mu.RLock()
		for _, rec := range ib.b.records {
			if recordMatches(ib.id, rec, matchers) {
				entries = append(entries, keyring.WrapCredential(s.wrapper(ib.id, rec)))
			}
		}
		ib.b.mu.RUnlock()
	}
	return entries, nil
}

func recordMatches(id credID, rec *record, matchers map[string]matcher) bool {
	for k, m := range matchers {
		v, ok := field(id, rec, k)
		if !ok || !m(v) {
			return false
		}
	}
	return true
}
