package util

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"
)

// Sep joins a namespace and a logical key into a physical key.
const Sep = ":"

// MaxKeyLen bounds logical keys in bytes.
const MaxKeyLen = 512

// PhysicalKey returns "<ns>:<key>".
func PhysicalKey(ns, key string) string { return ns + Sep + key }

// Prefix returns the physical-key prefix owned by ns.
func Prefix(ns string) string { return ns + Sep }

// LogicalKeys filters physical keys down to those owned by ns, strips the
// prefix and returns them sorted.
func LogicalKeys(ns string, physical []string) []string {
	p := Prefix(ns)
	out := make([]string, 0, len(physical))
	for _, k := range physical {
		if rest, ok := strings.CutPrefix(k, p); ok {
			out = append(out, rest)
		}
	}
	sort.Strings(out)
	return out
}

// PhysicalKeys maps logical keys of ns to physical keys, preserving order.
func PhysicalKeys(ns string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = PhysicalKey(ns, k)
	}
	return out
}

// KeyProblem describes why key is unusable, or returns "" when it is fine.
func KeyProblem(key string) string {
	switch {
	case strings.TrimSpace(key) == "":
		return "key must not be empty"
	case len(key) > MaxKeyLen:
		return "key exceeds 512 bytes"
	case strings.ContainsAny(key, "\r\n"):
		return "key must not contain line breaks"
	}
	return ""
}

// NamespaceProblem is KeyProblem for namespaces, which additionally must not
// contain the separator.
func NamespaceProblem(ns string) string {
	if p := KeyProblem(ns); p != "" {
		return strings.Replace(p, "key", "namespace", 1)
	}
	if strings.Contains(ns, Sep) {
		return "namespace must not contain " + `"` + Sep + `"`
	}
	if strings.IndexFunc(ns, unicode.IsSpace) >= 0 {
		return "namespace must not contain whitespace"
	}
	return ""
}

// Redact returns a short, stable SHA-256 prefix of k for logs.
func Redact(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}
