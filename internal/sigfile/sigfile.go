package sigfile

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/muurk/sigknife/internal/logging"
)

// minInflateBuffer is the smallest initial inflate buffer.
const minInflateBuffer = 256

// Database is a fully decoded signature database.
type Database struct {
	Header          Header
	OriginalVersion uint8
	Legacy          bool
	Name            string
	Tree            *Tree
}

// Supports reports whether the database targets code of the given bitness
// (32 or 64).
func (db *Database) Supports(bits int) bool {
	switch bits {
	case 32:
		return db.Header.AppTypes&AppType32Bit != 0
	case 64:
		return db.Header.AppTypes&AppType64Bit != 0
	default:
		return false
	}
}

// Stats summarises the decoded tree.
type Stats struct {
	Nodes  int
	Leaves int
	Depth  int
}

// Stats returns node and leaf counts for the decoded tree.
func (db *Database) Stats() Stats {
	return Stats{
		Nodes:  len(db.Tree.Nodes),
		Leaves: len(db.Tree.Leaves),
		Depth:  db.Tree.Depth() - 1,
	}
}

// Load reads and decodes a signature database file.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return db, nil
}

// Parse decodes a complete signature database held in memory. On error no
// partially built tree is returned.
func Parse(data []byte) (*Database, error) {
	h, fix, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	r := NewReader(data)
	if err := r.Seek(fix.NameOffset); err != nil {
		return nil, err
	}
	name, err := r.Bytes(int(h.NameLength))
	if err != nil {
		return nil, err
	}

	db := &Database{
		Header:          h,
		OriginalVersion: fix.OriginalVersion,
		Legacy:          fix.Legacy,
		Name:            string(name),
	}

	body := data[r.Pos():]
	if h.Compressed() {
		logging.Debug("Inflating signature tree",
			zap.Int("offset", r.Pos()),
			zap.Int("compressed_size", len(body)),
		)
		body, err = inflate(body)
		if err != nil {
			return nil, err
		}
	}

	tree := &Tree{}
	tree.addNode(nil)
	b := &treeBuilder{r: NewReader(body), tree: tree}
	if err := b.build(Root); err != nil {
		return nil, err
	}
	db.Tree = tree

	logging.LogSignatureDB(db.Name, h.Version, db.OriginalVersion, db.Legacy, len(tree.Nodes), len(tree.Leaves))
	return db, nil
}

// inflate decompresses the tree body into a buffer that starts at three
// times the input size and doubles whenever it fills up. Streams with a zlib
// header are accepted as well as raw deflate.
func inflate(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, NewDecompressionError(errors.New("empty compressed stream"))
	}

	var rc io.ReadCloser
	if isZlibHeader(src) {
		zr, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, NewDecompressionError(err)
		}
		rc = zr
	} else {
		rc = flate.NewReader(bytes.NewReader(src))
	}
	defer rc.Close()

	size := len(src) * 3
	if size < minInflateBuffer {
		size = minInflateBuffer
	}
	out := make([]byte, size)
	n := 0
	for {
		if n == len(out) {
			grown := make([]byte, len(out)*2)
			copy(grown, out)
			out = grown
		}
		m, err := rc.Read(out[n:])
		n += m
		if errors.Is(err, io.EOF) {
			return out[:n], nil
		}
		if err != nil {
			return nil, NewDecompressionError(err)
		}
	}
}

func isZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	return cmf&0x0F == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
