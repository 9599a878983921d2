// Package loader provides document loading adapters.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// ErrBinary is returned for files that do not look like text.
var ErrBinary = errors.New("binary content")

// sniffLen bounds how much of a file is inspected for binary content.
const sniffLen = 8000

// TextLoader loads plain text documents (.txt, .md).
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load reads a text document from the given path.
// Files containing NUL bytes or invalid UTF-8 in their first bytes are rejected with ErrBinary.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	content, info, err := readFile(path)
	if err != nil {
		return nil, err
	}

	head := content[:min(len(content), sniffLen)]
	if bytes.IndexByte(head, 0) >= 0 || !validUTF8Prefix(head) {
		return nil, fmt.Errorf("%s: %w", path, ErrBinary)
	}

	return newDocument(path, string(content), info), nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// PDFLoader loads PDF documents through a DocumentParser.
type PDFLoader struct {
	parser ports.DocumentParser
}

// NewPDFLoader creates a PDF loader backed by parser.
func NewPDFLoader(parser ports.DocumentParser) *PDFLoader {
	return &PDFLoader{parser: parser}
}

// Load reads a PDF and extracts its text. Parse failures are returned so the build can skip the file.
func (l *PDFLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	data, info, err := readFile(path)
	if err != nil {
		return nil, err
	}

	text, err := l.parser.Parse(ctx, data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return newDocument(path, cleanPDFContent(text), info), nil
}

// SupportedExtensions returns file extensions.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// MultiLoader combines multiple loaders.
type MultiLoader struct {
	loaders  map[string]ports.DocumentLoader
	fallback ports.DocumentLoader
}

// NewMultiLoader creates a loader that dispatches by extension; unknown extensions are read as text.
func NewMultiLoader(loaders ...ports.DocumentLoader) *MultiLoader {
	m := &MultiLoader{
		loaders:  make(map[string]ports.DocumentLoader),
		fallback: NewTextLoader(),
	}
	for _, l := range loaders {
		for _, ext := range l.SupportedExtensions() {
			m.loaders[ext] = l
		}
	}
	return m
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := m.loaders[ext]
	if !ok {
		loader = m.fallback
	}
	return loader.Load(ctx, path)
}

// SupportedExtensions returns all registered extensions, sorted.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DirectoryReader lists the documents under a data directory.
type DirectoryReader struct {
	logger zerolog.Logger
}

// NewDirectoryReader creates a DirectoryReader.
func NewDirectoryReader(logger zerolog.Logger) *DirectoryReader {
	return &DirectoryReader{logger: logger.With().Str("component", "directory_reader").Logger()}
}

// List returns every regular file under dir in lexical order.
// Hidden files and directories (leading dot) are skipped, and so are symlinked directories.
func (r *DirectoryReader) List(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			r.logger.Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	return paths, nil
}

func readFile(path string) ([]byte, fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return content, info, nil
}

func newDocument(path, content string, info fs.FileInfo) *entities.Document {
	return &entities.Document{
		ID:       generateDocID(path),
		Name:     filepath.Base(path),
		Path:     path,
		Content:  content,
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		LoadedAt: time.Now(),
	}
}

// validUTF8Prefix tolerates a multi-byte rune cut off at the sniff boundary.
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}

// cleanPDFContent removes control characters left over from extraction.
func cleanPDFContent(content string) string {
	var cleaned strings.Builder
	for _, r := range content {
		if r >= 32 && r != 127 && r != utf8.RuneError || r == '\n' || r == '\t' {
			cleaned.WriteRune(r)
		}
	}
	return strings.TrimSpace(cleaned.String())
}
