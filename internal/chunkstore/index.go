// ABOUTME: Flat vector index file with exact squared-L2 nearest neighbour search
// ABOUTME: Header carries magic, dimension and row count; rows are float32 LE
package chunkstore

import (
	"bufio"
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
)

const (
	// File header:
	//   0..7   magic "DOCVEC01"
	//   8..15  dim (uint64)
	//   16..23 count (uint64)
	headerSize = 24
	floatSize  = 4
)

var indexMagic = [8]byte{'D', 'O', 'C', 'V', 'E', 'C', '0', '1'}

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorruptIndex is returned for files that are not valid index files
	ErrCorruptIndex = errors.New("corrupt vector index")
)

// Neighbor is a search candidate: the row id and its squared L2 distance
type Neighbor struct {
	ID       int
	Distance float64
}

// FlatIndex is an in-memory copy of the index file. It is read-only after load.
type FlatIndex struct {
	dim  int
	rows []float32
}

// NewFlatIndex builds an index from rows that must all share dim
func NewFlatIndex(dim int, vectors [][]float32) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dim: %d", dim)
	}
	rows := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, index dim=%d", ErrDimensionMismatch, i, len(v), dim)
		}
		rows = append(rows, v...)
	}
	return &FlatIndex{dim: dim, rows: rows}, nil
}

// Dim returns the vector dimension
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of rows
func (ix *FlatIndex) Len() int {
	if ix.dim == 0 {
		return 0
	}
	return len(ix.rows) / ix.dim
}

// Row returns a copy of row i
func (ix *FlatIndex) Row(i int) []float32 {
	return slices.Clone(ix.rows[i*ix.dim : (i+1)*ix.dim])
}

// Search returns up to k rows nearest to query by squared L2 distance,
// ascending, ties broken by row id. The query must match the index dimension.
func (ix *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query dim=%d, index dim=%d", ErrDimensionMismatch, len(query), ix.dim)
	}
	n := ix.Len()
	if k <= 0 || n == 0 {
		return nil, nil
	}

	candidates := make([]Neighbor, n)
	for i := 0; i < n; i++ {
		row := ix.rows[i*ix.dim : (i+1)*ix.dim]
		var sum float64
		for j, q := range query {
			d := float64(q) - float64(row[j])
			sum += d * d
		}
		candidates[i] = Neighbor{ID: i, Distance: sum}
	}

	slices.SortStableFunc(candidates, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// ReadIndex loads an index file fully into memory
func ReadIndex(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorruptIndex, err)
	}

	var magic [8]byte
	copy(magic[:], header[:8])
	if magic != indexMagic {
		return nil, fmt.Errorf("%w: magic mismatch in %s", ErrCorruptIndex, path)
	}
	dim := binary.LittleEndian.Uint64(header[8:16])
	count := binary.LittleEndian.Uint64(header[16:24])
	if dim == 0 {
		return nil, fmt.Errorf("%w: dim=0 in %s", ErrCorruptIndex, path)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if dim > math.MaxInt32 || count > math.MaxInt32 {
		return nil, fmt.Errorf("%w: header dim=%d count=%d out of range in %s", ErrCorruptIndex, dim, count, path)
	}
	if info.Size() < headerSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrCorruptIndex, path, info.Size())
	}
	body := uint64(info.Size() - headerSize)
	if body%(dim*floatSize) != 0 || count != body/floatSize/dim {
		return nil, fmt.Errorf("%w: %s has %d data bytes, header promises %d rows of dim %d",
			ErrCorruptIndex, path, body, count, dim)
	}

	rows := make([]float32, count*dim)
	buf := make([]byte, floatSize)
	for i := range rows {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
		}
		rows[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}

	return &FlatIndex{dim: int(dim), rows: rows}, nil
}

// WriteIndex writes the index to path atomically (temp file, then rename)
func WriteIndex(path string, ix *FlatIndex) error {
	tmp, err := writeIndexTemp(path, ix)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	return nil
}

// writeIndexTemp writes ix next to path and returns the temp file name
func writeIndexTemp(path string, ix *FlatIndex) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create index directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp index: %w", err)
	}
	name := f.Name()

	w := bufio.NewWriter(f)
	header := make([]byte, headerSize)
	copy(header[:8], indexMagic[:])
	binary.LittleEndian.PutUint64(header[8:16], uint64(ix.dim))
	binary.LittleEndian.PutUint64(header[16:24], uint64(ix.Len()))
	_, werr := w.Write(header)

	buf := make([]byte, floatSize)
	for _, v := range ix.rows {
		if werr != nil {
			break
		}
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		_, werr = w.Write(buf)
	}
	if werr == nil {
		werr = w.Flush()
	}
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to write index: %w", werr)
	}
	return name, nil
}
