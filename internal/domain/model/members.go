package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMemberAnalysisShape is returned when member_analysis is not a JSON object.
var ErrMemberAnalysisShape = errors.New("member_analysis must be an object")

// MemberAnalysis maps member names to their stats and remembers the order in
// which members were first added. That order is the tie-break order for every
// ranking built on top of it. The zero value is an empty analysis.
type MemberAnalysis struct {
	names []string
	stats map[string]MemberStats
}

// Set stores stats for name, appending name to the order if it is new.
func (a *MemberAnalysis) Set(name string, stats MemberStats) {
	if a.stats == nil {
		a.stats = make(map[string]MemberStats)
	}
	if _, ok := a.stats[name]; !ok {
		a.names = append(a.names, name)
	}
	a.stats[name] = stats
}

// Get returns the stats for name.
func (a MemberAnalysis) Get(name string) (MemberStats, bool) {
	s, ok := a.stats[name]
	return s, ok
}

// Has reports whether name is present.
func (a MemberAnalysis) Has(name string) bool {
	_, ok := a.stats[name]
	return ok
}

// Names returns member names in insertion order.
func (a MemberAnalysis) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Len returns the number of members.
func (a MemberAnalysis) Len() int { return len(a.names) }

// MarshalJSON writes members as an object in insertion order.
func (a MemberAnalysis) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range a.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.stats[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping the key order of the document.
func (a *MemberAnalysis) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = MemberAnalysis{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrMemberAnalysisShape
	}

	var out MemberAnalysis
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return ErrMemberAnalysisShape
		}
		var stats MemberStats
		if err := dec.Decode(&stats); err != nil {
			return fmt.Errorf("member %q: %w", name, err)
		}
		out.Set(name, stats)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}
