package util

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"strings"

	"gitlab.com/golang-commonmark/markdown"
	"golang.org/x/net/html"
)

var markdownParser = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// RenderMarkdown translates CommonMark to HTML. Raw HTML in the input is escaped.
func RenderMarkdown(input string) string {

	// remove all tabs from the beginning of each line

	var unindented = &bytes.Buffer{}

	lineScanner := bufio.NewScanner(strings.NewReader(input))
	for lineScanner.Scan() {
		unindented.WriteString(strings.TrimLeft(lineScanner.Text(), "\t"))
		unindented.WriteString("\n")
	}

	return markdownParser.RenderToString(unindented.Bytes())
}

// PlainText returns the text content of an HTML fragment, with whitespace collapsed.
func PlainText(input io.Reader) string {

	tokenizer := html.NewTokenizerFragment(input, "body")

	var text = &strings.Builder{}
	var skip = 0 // depth inside script and style

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break // assuming tokenizer.Err() == io.EOF
		}

		tagNameBytes, _ := tokenizer.TagName()
		tagName := string(tagNameBytes)

		switch tt {
		case html.StartTagToken:
			if tagName == "script" || tagName == "style" {
				skip++
			}
			text.WriteString(" ")
		case html.EndTagToken:
			if (tagName == "script" || tagName == "style") && skip > 0 {
				skip--
			}
			text.WriteString(" ")
		case html.SelfClosingTagToken:
			text.WriteString(" ")
		case html.TextToken:
			if skip == 0 {
				text.Write(tokenizer.Text())
			}
		}
	}

	return strings.Join(strings.Fields(text.String()), " ")
}

// Excerpt renders the markdown body and returns its first maxRunes runes as plain text.
func Excerpt(body string, maxRunes int) string {
	return Trunc(PlainText(strings.NewReader(RenderMarkdown(body))), maxRunes)
}

// WordsPerMinute is used by ReadingTime.
const WordsPerMinute = 200

// ReadingTime estimates the minutes it takes to read a markdown body. It is at least one.
func ReadingTime(body string) int {
	var words = len(strings.Fields(PlainText(strings.NewReader(RenderMarkdown(body)))))
	var minutes = int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
