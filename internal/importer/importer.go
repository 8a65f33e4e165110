package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/cleared-dev/spendview/internal/model"
)

// Parser converts a bank CSV file into Transactions tagged with source.
type Parser interface {
	Parse(source string, r io.Reader) ([]model.Transaction, error)
}

// ErrInvalidEncoding is returned for uploads that are not valid UTF-8.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// Upload is one uploaded CSV file held in memory.
type Upload struct {
	Name    string
	Content []byte
}

// Hash returns the xxhash64 of the content as hex, used as the upload's identity.
func (u Upload) Hash() string {
	return strconv.FormatUint(xxhash.Sum64(u.Content), 16)
}

// Parse validates the encoding and runs p over the content.
func (u Upload) Parse(p Parser, source string) ([]model.Transaction, error) {
	if !utf8.Valid(u.Content) {
		return nil, fmt.Errorf("%s: %w", u.Name, ErrInvalidEncoding)
	}
	txns, err := p.Parse(source, bytes.NewReader(u.Content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Name, err)
	}
	return txns, nil
}

// FileInfo describes a CSV file found on disk.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Scan returns CSV files directly inside dir.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// Load reads the given paths into Uploads, in argument order. Directories
// are expanded to the CSV files they contain.
func Load(paths []string) ([]Upload, error) {
	var uploads []Upload
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			u, err := readUpload(p)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, u)
			continue
		}

		files, err := Scan(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			u, err := readUpload(f.Path)
			if err != nil {
				return nil, err
			}
			uploads = append(uploads, u)
		}
	}
	return uploads, nil
}

func readUpload(path string) (Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Upload{Name: filepath.Base(path), Content: data}, nil
}
