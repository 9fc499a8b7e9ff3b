// Package util provides utility functions for content hashing, excerpt
// derivation and front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
	"golang.org/x/net/html"

	"github.com/mmarkdown/mmark/v2/mast"
)

type ExtendedTitleData struct {
	*mast.TitleData

	// Body is the markdown following the front matter block, with newlines
	// normalized. Callers must use it instead of re-slicing their input,
	// which may differ in length after normalization.
	Body []byte `toml:"-"`

	// Status is the publish status requested in the front matter, if any.
	Status string
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// StripHTML returns the text content of a rich-text blob with tags removed
// and whitespace collapsed. Script and style bodies are skipped.
func StripHTML(content string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(content))

	var b strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseWhitespace(b.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
				b.WriteByte(' ')
			}
		}
	}
}

// Excerpt derives a plain-text summary of at most max runes from a rich-text
// content blob, appending an ellipsis when the text was truncated.
func Excerpt(content string, max int) string {
	text := StripHTML(content)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	// Cut back to the last word boundary so the ellipsis never splits a word.
	cut := max
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = max
	}

	return strings.TrimRight(string(runes[:cut]), " ") + "..."
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GetFrontMatter parses a %%%-delimited TOML front matter block from the top
// of a markdown draft.
func GetFrontMatter(md []byte) (*ExtendedTitleData, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte("%%%")

	// Check if md is long enough to contain the delimiter
	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	frontMatter := md[len(delimiter) : end-len(delimiter)-1]
	info := &ExtendedTitleData{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(frontMatter), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	info.Body = md[end:]

	return info, nil
}
