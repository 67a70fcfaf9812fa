package idempotency

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestParametersHash_CanonicalizationProperty checks the round-trip law from
// §8: canonical-JSON hashing is stable under key reordering and whitespace,
// for arbitrary string-keyed/string-valued parameter maps, not just the
// fixed examples in hash_test.go.
func TestParametersHash_CanonicalizationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("reordering keys before marshalling does not change the hash", prop.ForAll(
		func(keys []string, values []string) bool {
			n := len(keys)
			if len(values) < n {
				n = len(values)
			}
			forward := make(map[string]string, n)
			reversed := make(map[string]string, n)
			for i := 0; i < n; i++ {
				if _, dup := forward[keys[i]]; !dup {
					forward[keys[i]] = values[i]
				}
			}
			for i := n - 1; i >= 0; i-- {
				reversed[keys[i]] = forward[keys[i]]
			}

			rawForward, err := json.Marshal(forward)
			if err != nil {
				return false
			}
			rawReversed, err := json.Marshal(reversed)
			if err != nil {
				return false
			}

			h1, err := ParametersHash(rawForward)
			if err != nil {
				return false
			}
			h2, err := ParametersHash(rawReversed)
			if err != nil {
				return false
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("surrounding whitespace does not change the hash", prop.ForAll(
		func(topic string) bool {
			tight := json.RawMessage(`{"topic":"` + jsonEscape(topic) + `"}`)
			spaced := json.RawMessage(" \t{ \"topic\" :  \"" + jsonEscape(topic) + "\" }\n ")

			h1, err1 := ParametersHash(tight)
			h2, err2 := ParametersHash(spaced)
			if err1 != nil || err2 != nil {
				return false
			}
			return h1 == h2
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}
