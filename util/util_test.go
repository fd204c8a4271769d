package util

import (
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestSlugify(t *testing.T) {
	c := qt.New(t)

	tests := map[string]string{
		"Hello World":             "hello-world",
		"  Résumé 2024  ":         "resume-2024",
		"Pemilu: Hasil & Analisa": "pemilu-hasil-analisa",
		"---":                     "",
		"a--b":                    "a-b",
		"Ünïcödé!":                "unicode",
	}

	for in, want := range tests {
		c.Run(in, func(c *qt.C) {
			c.Assert(Slugify(in), qt.Equals, want)
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	c := qt.New(t)
	c.Assert(IsValidEmail("anna@example.com"), qt.IsTrue)
	c.Assert(IsValidEmail("anna@example"), qt.IsFalse)
	c.Assert(IsValidEmail("anna example@example.com"), qt.IsFalse)
	c.Assert(IsValidEmail(""), qt.IsFalse)
}

func TestValidatePassword(t *testing.T) {
	c := qt.New(t)
	c.Assert(ValidatePassword("Secret1!"), qt.HasLen, 0)
	c.Assert(ValidatePassword("secret"), qt.HasLen, 4) // length, upper, digit, special
	c.Assert(ValidatePassword("SECRET12!"), qt.DeepEquals, []string{"password must contain a lower case letter"})
}

func TestTrunc(t *testing.T) {
	c := qt.New(t)
	c.Assert(Trunc("short", 10), qt.Equals, "short")
	c.Assert(Trunc("hello world", 6), qt.Equals, "hello...")
	c.Assert(Trunc("äöüäöü", 3), qt.Equals, "äöü...")
}

func TestRenderMarkdown(t *testing.T) {
	c := qt.New(t)
	c.Assert(RenderMarkdown("**bold**"), qt.Equals, "<p><strong>bold</strong></p>\n")
	c.Assert(strings.Contains(RenderMarkdown("<script>alert(1)</script>"), "<script>"), qt.IsFalse)
}

func TestPlainText(t *testing.T) {
	c := qt.New(t)
	c.Assert(PlainText(strings.NewReader("<p>Hello <em>world</em></p><script>var x;</script><p>again</p>")), qt.Equals, "Hello world again")
}

func TestExcerpt(t *testing.T) {
	c := qt.New(t)
	c.Assert(Excerpt("# Title\n\nSome *text* here.", 100), qt.Equals, "Title Some text here.")
	c.Assert(Excerpt("one two three", 7), qt.Equals, "one two...")
}

func TestReadingTime(t *testing.T) {
	c := qt.New(t)
	c.Assert(ReadingTime(""), qt.Equals, 1)
	c.Assert(ReadingTime(strings.Repeat("word ", 200)), qt.Equals, 1)
	c.Assert(ReadingTime(strings.Repeat("word ", 201)), qt.Equals, 2)
}

func TestParseTime(t *testing.T) {
	c := qt.New(t)

	ts, err := ParseTime("")
	c.Assert(err, qt.IsNil)
	c.Assert(ts.IsZero(), qt.IsTrue)

	ts, err = ParseTime("24.12.2024 18:30")
	c.Assert(err, qt.IsNil)
	c.Assert(ts.Equal(time.Date(2024, 12, 24, 18, 30, 0, 0, time.Local)), qt.IsTrue)
	c.Assert(FormatTime(ts), qt.Equals, "24.12.2024 18:30")

	_, err = ParseTime("2024-12-24")
	c.Assert(err, qt.IsNotNil)

	c.Assert(FormatTime(time.Time{}), qt.Equals, "")
}

func TestNumPages(t *testing.T) {
	c := qt.New(t)
	c.Assert(NumPages(0, 10), qt.Equals, 1)
	c.Assert(NumPages(10, 10), qt.Equals, 1)
	c.Assert(NumPages(11, 10), qt.Equals, 2)
	c.Assert(NumPages(5, 0), qt.Equals, 1)
}

func TestPages(t *testing.T) {
	c := qt.New(t)
	c.Assert(Pages(1, 1), qt.DeepEquals, []int{1})
	c.Assert(Pages(1, 5), qt.DeepEquals, []int{1, 2, 3, 5})
	c.Assert(Pages(10, 20), qt.DeepEquals, []int{1, 2, 6, 8, 9, 10, 11, 12, 14, 18, 20})
}

func TestPageLinks(t *testing.T) {
	c := qt.New(t)

	var link = func(page int, name string) string { return name }
	var current = func(page int, name string) string { return "[" + name + "]" }

	var got = PageLinks(2, 3, link, current)
	var names = make([]string, len(got))
	for i, h := range got {
		names[i] = string(h)
	}
	c.Assert(names, qt.DeepEquals, []string{"&laquo;", "1", "[2]", "3", "&raquo;"})

	c.Assert(PageLinks(0, 3, link, current), qt.HasLen, 0)
}
