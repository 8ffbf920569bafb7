package stubserver

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	snippetLimit        = 240
)

var whitespace = regexp.MustCompile(`\s+`)

type chunk struct {
	source string
	text   string
}

// store is the stub's stand-in for a vector index: documents are split into
// overlapping windows and questions are matched by shared words.
type store struct {
	mu      sync.RWMutex
	size    int
	overlap int
	names   []string
	chunks  []chunk
}

func newStore(size, overlap int) *store {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &store{size: size, overlap: overlap}
}

func (s *store) add(name, text string) int {
	pieces := split(text, s.size, s.overlap)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	for _, piece := range pieces {
		s.chunks = append(s.chunks, chunk{source: name, text: piece})
	}
	return len(pieces)
}

func (s *store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = nil
	s.chunks = nil
}

func (s *store) documents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.names...)
}

type match struct {
	chunk chunk
	score int
	idx   int
}

// search returns the best snippet and the distinct sources of up to three
// matching chunks.
func (s *store) search(question string) (string, []string) {
	terms := keywords(question)
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]match, 0, len(s.chunks))
	for idx, c := range s.chunks {
		lower := strings.ToLower(c.text)
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, match{chunk: c, score: score, idx: idx})
		}
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].idx < matches[j].idx
		}
		return matches[i].score > matches[j].score
	})

	var sources []string
	seen := map[string]bool{}
	for _, m := range matches {
		if len(sources) == 3 {
			break
		}
		if !seen[m.chunk.source] {
			seen[m.chunk.source] = true
			sources = append(sources, m.chunk.source)
		}
	}
	return snippet(matches[0].chunk.text), sources
}

func keywords(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) > 3 {
			terms = append(terms, field)
		}
	}
	return terms
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLimit {
		return text
	}
	return strings.TrimSpace(string(runes[:snippetLimit])) + "…"
}

// split cuts text into windows of size runes, each overlapping the previous
// one by overlap runes.
func split(text string, size, overlap int) []string {
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if text == "" {
		return nil
	}
	runes := []rune(text)
	step := size - overlap
	var pieces []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return pieces
}

// extractText turns an uploaded file into plain text.
func extractText(ext string, data []byte) (string, error) {
	switch ext {
	case ".pdf":
		return pdfText(data)
	case ".txt", ".md", ".csv":
		return string(data), nil
	case ".docx":
		// Word parsing is the real service's job; index the readable runs only.
		return strings.Map(func(r rune) rune {
			if r < 32 || r > 126 {
				return ' '
			}
			return r
		}, string(data)), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to read pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}
	return builder.String(), nil
}
