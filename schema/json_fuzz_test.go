package schema

import (
	"testing"
)

// FuzzParse checks that arbitrary input never panics the schema decoder and
// that anything it accepts encodes back to an equal schema.
// Run with: go test -fuzz=FuzzParse -fuzztime=30s ./schema/
func FuzzParse(f *testing.F) {
	f.Add([]byte(`{"name":"root","kind":"struct","nullable":false}`))
	f.Add([]byte(`{"name":"root","kind":"struct","children":[{"name":"id","kind":"primitive","type":{"id":"Int32"}}]}`))
	f.Add([]byte(`{"name":"root","kind":"struct","children":[{"name":"l","kind":"list","children":[{"name":"item","kind":"primitive","nullable":true,"type":{"id":"String"}}]}]}`))
	f.Add([]byte(`{"name":"root","kind":"struct","children":[{"name":"d","kind":"primitive","type":{"id":"Decimal128","precision":5,"scale":2}}]}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Parse(data)
		if err != nil {
			return
		}
		out, err := s.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON failed on accepted schema: %v", err)
		}
		again, err := Parse(out)
		if err != nil {
			t.Fatalf("re-parse failed: %v", err)
		}
		if !s.Equal(again) {
			t.Errorf("schema changed across encode/decode:\n%s\nvs\n%s", s, again)
		}
	})
}
