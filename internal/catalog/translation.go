package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/repository"
)

// Translation string tables: a "#KEY" line followed by one or more value
// lines. Blank lines and "//" comments are ignored. Keys keep their "#".

type translationSource struct{}

func (s *translationSource) Name() string        { return config.RepoTranslations }
func (s *translationSource) Patterns() []string  { return config.Default().Sources[config.RepoTranslations] }
func (s *translationSource) Prefilter() []string { return []string{"#"} }

func (s *translationSource) Extract(ctx context.Context, path string, content []byte) ([]repository.Entry[string, []string], error) {
	return parseStringTable(content)
}

func parseStringTable(content []byte) ([]repository.Entry[string, []string], error) {
	var (
		entries []repository.Entry[string, []string]
		key     string
		values  []string
	)
	flush := func() {
		if key != "" {
			if values == nil {
				values = []string{}
			}
			entries = append(entries, repository.Accept(key, values))
		}
		key, values = "", nil
	}

	sc := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "//"):
		case strings.HasPrefix(trimmed, "#"):
			flush()
			if trimmed == "#" || strings.ContainsAny(trimmed, " \t") {
				entries = append(entries, repository.Reject[string, []string](
					trimmed, fmt.Errorf("line %d: malformed key %q", lineNo, trimmed)))
				continue
			}
			key = trimmed
		case key != "":
			values = append(values, trimmed)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return entries, nil
}

// translationKey normalizes a journal string reference to a table key.
func translationKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "#") {
		return s
	}
	return "#" + s
}
