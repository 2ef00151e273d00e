package ldif

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// Record is one parsed LDIF entry: a DN and its attribute lines,
// grouped by name in the order they appeared.
type Record struct {
	DN         string
	Attributes map[string][]string
}

func newRecord() *Record {
	return &Record{Attributes: map[string][]string{}}
}

func (r *Record) addAttr(name, value string) {
	r.Attributes[name] = append(r.Attributes[name], value)
}

// ParseEntries reads RFC 2849 LDIF entry records - dn: / dn:: header
// lines, attr: / attr:: body lines, single-leading-space continuations,
// '#' comments, blank-line-separated records - and returns them in
// file order. It does not touch schema definitions; that is
// ParseAttributes' and ParseObjectClasses' job.
func ParseEntries(r io.Reader) ([]*Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []*Record
	var cur *Record
	var pending string

	flush := func() error {
		if pending == "" {
			return nil
		}
		defer func() { pending = "" }()
		if cur == nil {
			return fmt.Errorf("ldif: attribute line with no preceding dn: %s", pending)
		}
		return applyLine(cur, pending)
	}

	for scanner.Scan() {
		line := scanner.Text()

		if len(line) > 0 && line[0] == ' ' {
			pending += line[1:]
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}

		switch {
		case len(line) > 0 && line[0] == '#':
			continue
		case line == "":
			if cur != nil {
				if cur.DN == "" {
					return nil, fmt.Errorf("ldif: entry record missing dn")
				}
				records = append(records, cur)
				cur = nil
			}
		case strings.HasPrefix(strings.ToLower(line), "dn:"):
			cur = newRecord()
			dn, err := parseValueLine(line[2:])
			if err != nil {
				return nil, fmt.Errorf("ldif: invalid dn line %q: %w", line, err)
			}
			cur.DN = dn
		default:
			pending = line
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ldif: %w", err)
	}

	if cur != nil {
		if cur.DN == "" {
			return nil, fmt.Errorf("ldif: entry record missing dn")
		}
		records = append(records, cur)
	}

	return records, nil
}

func applyLine(rec *Record, line string) error {
	colon := strings.Index(line, ":")
	if colon == -1 {
		return fmt.Errorf("ldif: missing colon in attribute line: %s", line)
	}
	name := line[:colon]
	value, err := parseValueLine(line[colon:])
	if err != nil {
		return fmt.Errorf("ldif: invalid value for attribute %q: %w", name, err)
	}
	rec.addAttr(name, value)
	return nil
}

// parseValueLine decodes the ": value" or ":: base64value" suffix that
// follows an attribute name (or "dn").
func parseValueLine(suffix string) (string, error) {
	if strings.HasPrefix(suffix, "::") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(suffix[2:]))
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	return strings.TrimSpace(strings.TrimPrefix(suffix, ":")), nil
}
