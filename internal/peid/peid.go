package peid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/muurk/sigknife/internal/descriptor"
	"github.com/muurk/sigknife/internal/sigmake"
)

var (
	namePattern  = regexp.MustCompile(`^\[(.*)\]$`)
	fieldPattern = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)
)

// Entry is one database signature.
type Entry struct {
	Name           string
	Signature      *descriptor.Descriptor
	EntryPointOnly bool
}

// Database is an ordered list of entries.
type Database struct {
	Entries []Entry
}

// Load parses the database at path.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PEiD database: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a userdb.txt style database. Entries without a signature are
// dropped.
func Parse(r io.Reader) (*Database, error) {
	db := &Database{}
	var cur *Entry
	flush := func() {
		if cur != nil && cur.Signature != nil {
			db.Entries = append(db.Entries, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}
		if m := namePattern.FindStringSubmatch(text); m != nil {
			flush()
			cur = &Entry{Name: m[1]}
			continue
		}
		m := fieldPattern.FindStringSubmatch(text)
		if m == nil || cur == nil {
			return nil, fmt.Errorf("line %d: unexpected %q", line, text)
		}
		switch strings.ToLower(m[1]) {
		case "signature":
			sig, err := descriptor.FromPEiD(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: signature for %q: %w", line, cur.Name, err)
			}
			cur.Signature = sig
		case "ep_only":
			cur.EntryPointOnly = strings.EqualFold(strings.TrimSpace(m[2]), "true")
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read PEiD database: %w", err)
	}
	flush()
	return db, nil
}

// Hit is an entry found in an image.
type Hit struct {
	Name    string
	Address uint64
}

// Scan tests every entry against data mapped at base with the given entry
// point, returning hits in database order.
func (db *Database) Scan(data []byte, base, entry uint64) []Hit {
	var hits []Hit
	for _, e := range db.Entries {
		if e.EntryPointOnly {
			if entry < base || entry-base >= uint64(len(data)) {
				continue
			}
			if e.Signature.MatchAt(data, int(entry-base)) {
				hits = append(hits, Hit{Name: e.Name, Address: entry})
			}
			continue
		}
		if off := sigmake.Index(e.Signature, data); off >= 0 {
			hits = append(hits, Hit{Name: e.Name, Address: base + uint64(off)})
		}
	}
	return hits
}
