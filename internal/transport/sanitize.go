package transport

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"sort"
)

// DumpRequestRedacted dumps an outgoing request with secrets redacted.
func DumpRequestRedacted(req *http.Request, secrets []string, salt string) ([]byte, error) {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return nil, fmt.Errorf("failed to dump request: %w", err)
	}

	return Redact(dump, secrets, salt), nil
}

// DumpResponseRedacted dumps a response whose body was already read.
func DumpResponseRedacted(resp *http.Response, body []byte, secrets []string, salt string) ([]byte, error) {
	clone := new(http.Response)
	*clone = *resp
	clone.Body = io.NopCloser(bytes.NewReader(body))

	dump, err := httputil.DumpResponse(clone, true)
	if err != nil {
		return nil, fmt.Errorf("failed to dump response: %w", err)
	}

	return Redact(dump, secrets, salt), nil
}

// Redact replaces every occurrence of a secret in data with [S256:hash].
// Longer secrets are matched first so a secret containing another is
// replaced whole.
func Redact(data []byte, secrets []string, salt string) []byte {
	if len(secrets) == 0 || len(data) == 0 {
		return data
	}

	targets := redactionTargets(secrets, salt)
	if len(targets) == 0 {
		return data
	}

	var out []byte
	for i := 0; i < len(data); {
		target := matchTargetAt(data[i:], targets)
		if target == nil {
			if out != nil {
				out = append(out, data[i])
			}
			i++
			continue
		}

		if out == nil {
			out = make([]byte, 0, len(data))
			out = append(out, data[:i]...)
		}
		out = append(out, target.replacement...)
		i += len(target.needle)
	}

	if out != nil {
		return out
	}
	return data
}

type redactionTarget struct {
	needle      []byte
	replacement []byte
}

func matchTargetAt(remaining []byte, targets []redactionTarget) *redactionTarget {
	for i := range targets {
		if bytes.HasPrefix(remaining, targets[i].needle) {
			return &targets[i]
		}
	}
	return nil
}

func redactionTargets(secrets []string, salt string) []redactionTarget {
	unique := make(map[string]struct{}, len(secrets))
	for _, secret := range secrets {
		if secret != "" {
			unique[secret] = struct{}{}
		}
	}

	keys := make([]string, 0, len(unique))
	for secret := range unique {
		keys = append(keys, secret)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	targets := make([]redactionTarget, 0, len(keys))
	for _, secret := range keys {
		targets = append(targets, redactionTarget{
			needle:      []byte(secret),
			replacement: hashToken(secret, salt),
		})
	}
	return targets
}

func hashToken(secret, salt string) []byte {
	sum := sha256.Sum256([]byte(salt + secret))
	return []byte("[S256:" + hex.EncodeToString(sum[:8]) + "]")
}
