// Package render converts composed markdown drafts into rich-text content
// blobs, and content blobs back into terminal-friendly text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

// MarkdownToHTML renders a composed markdown draft into the HTML blob the
// writing service stores. Code fences keep their language in a class
// attribute so Terminal can highlight them on the way back out.
func MarkdownToHTML(md []byte) []byte {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = string(info)
				}
				fmt.Fprintf(w, "<pre><code class=\"language-%s\">%s</code></pre>",
					lang, htmlEscape(string(code.Literal)))
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough |
			parser.SpaceHeadings | parser.HeadingIDs | parser.AutoHeadingIDs |
			parser.OrderedListStart | parser.NonBlockingSpace,
	).Parse(md)

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// Block is one displayable chunk of a content blob.
type Block struct {
	Code bool
	Lang string
	Text string
}

// Blocks splits a content blob into text and fenced-code blocks. Tags other
// than pre/code are flattened into their text; block-level boundaries become
// newlines.
func Blocks(content string) []Block {
	tokenizer := html.NewTokenizer(strings.NewReader(content))

	var blocks []Block
	var text strings.Builder
	var code strings.Builder
	var lang string
	inCode := false

	flushText := func() {
		t := strings.TrimSpace(text.String())
		text.Reset()
		if t != "" {
			blocks = append(blocks, Block{Text: t})
		}
	}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if inCode {
				blocks = append(blocks, Block{Code: true, Lang: lang, Text: strings.TrimRight(code.String(), "\n")})
			} else {
				flushText()
			}
			return blocks
		case html.StartTagToken:
			name, hasAttr := tokenizer.TagName()
			tag := string(name)
			if tag == "code" || tag == "pre" {
				if !inCode {
					flushText()
					inCode = true
					code.Reset()
					lang = ""
				}
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = tokenizer.TagAttr()
					if string(key) == "class" {
						lang = strings.TrimPrefix(string(val), "language-")
					}
				}
			} else if isBlockTag(tag) && !inCode {
				text.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == "pre" && inCode {
				inCode = false
				blocks = append(blocks, Block{Code: true, Lang: lang, Text: strings.TrimRight(code.String(), "\n")})
			} else if isBlockTag(tag) && !inCode {
				text.WriteByte('\n')
			}
		case html.TextToken:
			if inCode {
				code.Write(tokenizer.Text())
			} else {
				text.Write(tokenizer.Text())
			}
		}
	}
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "br", "ul", "ol":
		return true
	}
	return false
}

// Terminal renders a content blob for display in a terminal, highlighting
// fenced code blocks with the given chroma style.
func Terminal(content, highlightTheme string) string {
	var b strings.Builder
	for i, block := range Blocks(content) {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if block.Code {
			b.WriteString(HighlightCode(block.Text, block.Lang, highlightTheme))
		} else {
			b.WriteString(collapseBlanks(block.Text))
		}
	}
	return b.String()
}

func collapseBlanks(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
