package keyring

import (
	"fmt"
	"sort"
	"strings"
)

// MaxFieldLength is the default limit ValidateKey applies to service and user.
const MaxFieldLength = 1024

// Modifier is one provider-specific key/value disambiguator.
type Modifier struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Modifiers is an ordered list of modifiers, sorted by key.
type Modifiers []Modifier

// NewModifiers converts a map into Modifiers sorted by key.
// A nil or empty map gives nil.
func NewModifiers(m map[string]string) Modifiers {
	if len(m) == 0 {
		return nil
	}
	mods := make(Modifiers, 0, len(m))
	for k, v := range m {
		mods = append(mods, Modifier{Key: k, Value: v})
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Key < mods[j].Key })
	return mods
}

// Get returns the value for key and whether it was present.
func (m Modifiers) Get(key string) (string, bool) {
	for _, mod := range m {
		if mod.Key == key {
			return mod.Value, true
		}
	}
	return "", false
}

// Map returns the modifiers as a map.
func (m Modifiers) Map() map[string]string {
	out := make(map[string]string, len(m))
	for _, mod := range m {
		out[mod.Key] = mod.Value
	}
	return out
}

// Equal reports whether both lists hold the same pairs in the same order.
func (m Modifiers) Equal(other Modifiers) bool {
	if len(m) != len(other) {
		return false
	}
	for i := range m {
		if m[i] != other[i] {
			return false
		}
	}
	return true
}

// Without returns a copy of m with the named keys removed.
func (m Modifiers) Without(keys ...string) Modifiers {
	var out Modifiers
	for _, mod := range m {
		drop := false
		for _, k := range keys {
			if mod.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, mod)
		}
	}
	return out
}

// Subset reports whether every modifier in m appears in other with the same value.
func (m Modifiers) Subset(other Modifiers) bool {
	for _, mod := range m {
		v, ok := other.Get(mod.Key)
		if !ok || v != mod.Value {
			return false
		}
	}
	return true
}

// Key is the identifying tuple of a credential.
type Key struct {
	Service   string
	User      string
	Modifiers Modifiers
}

// Equal compares service, user and modifiers.
func (k Key) Equal(other Key) bool {
	return k.Service == other.Service && k.User == other.User && k.Modifiers.Equal(other.Modifiers)
}

func (k Key) String() string {
	if len(k.Modifiers) == 0 {
		return fmt.Sprintf("%s/%s", k.Service, k.User)
	}
	pairs := make([]string, len(k.Modifiers))
	for i, mod := range k.Modifiers {
		pairs[i] = mod.Key + "=" + mod.Value
	}
	return fmt.Sprintf("%s/%s{%s}", k.Service, k.User, strings.Join(pairs, ","))
}

// ValidateKey rejects empty fields with Invalid and fields longer than
// maxLen bytes with TooLong. A maxLen of zero means MaxFieldLength.
func ValidateKey(service, user string, maxLen int) error {
	if maxLen <= 0 {
		maxLen = MaxFieldLength
	}
	if service == "" {
		return Invalid("service", "cannot be empty")
	}
	if user == "" {
		return Invalid("user", "cannot be empty")
	}
	if len(service) > maxLen {
		return TooLong("service", maxLen)
	}
	if len(user) > maxLen {
		return TooLong("user", maxLen)
	}
	return nil
}

// ParseModifiers checks mods against the keys a store accepts. A key
// prefixed with "*" in allowed must carry "true" or "false". Unknown keys
// return Invalid.
func ParseModifiers(allowed []string, mods Modifiers) error {
	boolKeys := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		if strings.HasPrefix(k, "*") {
			boolKeys[k[1:]] = true
		} else {
			boolKeys[k] = false
		}
	}
	for _, mod := range mods {
		isBool, ok := boolKeys[mod.Key]
		if !ok {
			return Invalid(mod.Key, "unknown key")
		}
		if isBool && mod.Value != "true" && mod.Value != "false" {
			return Invalid(mod.Key, "must be `true` or `false`")
		}
	}
	return nil
}
