package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/readaloud/internal/text"
)

// ErrNoText is returned when a file or directory yields no readable blocks.
var ErrNoText = errors.New("document has no text")

// IsDocument reports whether path carries a file extension this package can
// load.
func IsDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	default:
		return false
	}
}

// Load parses one file into a single-section document. Markdown files get
// structural parsing (headings, list items, code fences, image captions);
// anything else is read as plain text with blank-line paragraph breaks.
func Load(path string) (*Document, error) {
	sec, meta, err := loadSection(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Title:    meta.title,
		Language: meta.lang,
		Sections: []Section{sec},
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// LoadDir builds a multi-section document from every loadable file in dir,
// one section per file in name order. Files without text are skipped.
func LoadDir(dir string) (*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read library dir: %w", err)
	}

	doc := &Document{Title: filepath.Base(dir)}
	for _, e := range entries {
		if e.IsDir() || !IsDocument(e.Name()) {
			continue
		}

		sec, meta, err := loadSection(filepath.Join(dir, e.Name()))
		if err != nil {
			if errors.Is(err, ErrNoText) {
				continue
			}
			return nil, err
		}
		if doc.Language == "" {
			doc.Language = meta.lang
		}
		doc.Sections = append(doc.Sections, sec)
	}

	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoText)
	}
	return doc, nil
}

type fileMeta struct {
	title string
	lang  string
}

func loadSection(path string) (Section, fileMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Section{}, fileMeta{}, fmt.Errorf("read document: %w", err)
	}

	raw, err := text.Normalize(string(data))
	if err != nil {
		return Section{}, fileMeta{}, fmt.Errorf("%s: %w", path, ErrNoText)
	}
	lines := strings.Split(raw, "\n")

	var (
		blocks []Block
		meta   fileMeta
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		blocks, meta = parseMarkdown(lines)
	default:
		blocks = parsePlain(lines)
	}

	if len(blocks) == 0 {
		return Section{}, fileMeta{}, fmt.Errorf("%s: %w", path, ErrNoText)
	}

	if meta.title == "" {
		for _, b := range blocks {
			if b.Kind == Heading {
				meta.title = b.Text
				break
			}
		}
	}

	sec := Section{
		Href:   filepath.Base(path),
		Title:  meta.title,
		Blocks: blocks,
	}
	return sec, meta, nil
}

// parsePlain splits plain text into paragraphs on blank lines, rejoining
// hard-wrapped lines with single spaces.
func parsePlain(lines []string) []Block {
	var blocks []Block
	var para []string

	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Kind: Paragraph, Text: strings.Join(para, " ")})
			para = nil
		}
	}

	for _, line := range lines {
		if text.IsBlank(line) {
			flush()
			continue
		}
		para = append(para, strings.TrimSpace(line))
	}
	flush()

	return blocks
}

// parseMarkdown is a line-based reading of the markdown subset that matters
// for speech: headings, list items, fenced code (kept as raw, unspoken),
// image alt text as captions, and optional YAML front matter for title and
// language.
func parseMarkdown(lines []string) ([]Block, fileMeta) {
	meta, start := frontMatter(lines)

	var (
		blocks  []Block
		para    []string
		fence   []string
		inFence bool
	)

	flush := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Kind: Paragraph, Text: strings.Join(para, " ")})
			para = nil
		}
	}

	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			if inFence {
				blocks = append(blocks, Block{Kind: Raw, Text: strings.Join(fence, "\n")})
				fence = nil
				inFence = false
			} else {
				flush()
				inFence = true
			}
		case inFence:
			fence = append(fence, line)
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
			flush()
			blocks = append(blocks, Block{
				Kind: Heading,
				Text: strings.TrimSpace(strings.TrimLeft(trimmed, "#")),
			})
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flush()
			blocks = append(blocks, Block{Kind: ListItem, Text: strings.TrimSpace(trimmed[2:])})
		case strings.HasPrefix(trimmed, "!["):
			flush()
			if alt := imageAlt(trimmed); alt != "" {
				blocks = append(blocks, Block{Kind: Caption, Text: alt})
			}
		default:
			para = append(para, trimmed)
		}
	}
	flush()
	if inFence && len(fence) > 0 {
		blocks = append(blocks, Block{Kind: Raw, Text: strings.Join(fence, "\n")})
	}

	return blocks, meta
}

// frontMatter parses a leading YAML front-matter block delimited by --- lines
// and returns the line index where content resumes. An unterminated block is
// treated as content.
func frontMatter(lines []string) (fileMeta, int) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fileMeta{}, 0
	}

	var meta fileMeta
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			return meta, i + 1
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "title":
			meta.title = strings.TrimSpace(val)
		case "lang", "language":
			meta.lang = strings.TrimSpace(val)
		}
	}
	return fileMeta{}, 0
}

func imageAlt(line string) string {
	alt := strings.TrimPrefix(line, "![")
	if i := strings.IndexByte(alt, ']'); i >= 0 {
		return strings.TrimSpace(alt[:i])
	}
	return ""
}
