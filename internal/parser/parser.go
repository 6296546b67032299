package parser

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"phishguard/internal/models"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

const mediaSelector = "img[src],audio[src],video[src],source[src],embed[src]"

// Extract parses an HTML document into the signals the content features need.
func (p *Parser) Extract(r io.Reader, contentType string) (models.Page, error) {
	// Decode to UTF-8 if needed
	buf := new(bytes.Buffer)
	_, _ = io.Copy(buf, r)
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if !utf8.Valid(data) {
			return models.Page{}, err
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return models.Page{}, err
	}

	page := models.Page{
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		IFrames: doc.Find("iframe").Length(),
	}

	doc.Find("form").Each(func(i int, s *goquery.Selection) {
		html, _ := goquery.OuterHtml(s)
		page.Forms = append(page.Forms, models.Form{
			Action:    strings.TrimSpace(s.AttrOr("action", "")),
			Method:    strings.ToLower(strings.TrimSpace(s.AttrOr("method", "get"))),
			HasMailto: strings.Contains(strings.ToLower(html), "mailto:"),
		})
	})

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		page.Anchors = append(page.Anchors, strings.TrimSpace(s.AttrOr("href", "")))
	})

	doc.Find(mediaSelector).Each(func(i int, s *goquery.Selection) {
		if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
			page.MediaSources = append(page.MediaSources, src)
		}
	})

	doc.Find("link[rel]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		for _, rel := range strings.Fields(strings.ToLower(s.AttrOr("rel", ""))) {
			if rel == "icon" {
				page.Favicon = true
				return false
			}
		}
		return true
	})

	// inline scripts only; external ones have no text
	var scripts []string
	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			scripts = append(scripts, t)
		}
	})
	page.ScriptText = strings.Join(scripts, " ")

	page.MouseOver = doc.Find("[onmouseover]").Length() > 0 ||
		strings.Contains(strings.ToLower(page.ScriptText), "onmouseover")

	return page, nil
}
