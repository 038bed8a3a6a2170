package sources

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Body    OPMLBody `xml:"body"`
}

type OPMLBody struct {
	Outlines []OPMLOutline `xml:"outline"`
}

type OPMLOutline struct {
	Title    string        `xml:"title,attr"`
	Text     string        `xml:"text,attr"`
	Type     string        `xml:"type,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	Outlines []OPMLOutline `xml:"outline"`
}

// OPMLFeed is a subscription found in an OPML document.
type OPMLFeed struct {
	Name string
	URL  string
}

// ParseOPML returns every outline carrying an xmlUrl, nested outlines
// included, in document order.
func ParseOPML(r io.Reader) ([]OPMLFeed, error) {
	var opml OPML
	if err := xml.NewDecoder(r).Decode(&opml); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	var feeds []OPMLFeed
	extractFeeds(&feeds, opml.Body.Outlines)

	return feeds, nil
}

func extractFeeds(result *[]OPMLFeed, outlines []OPMLOutline) {
	for _, outline := range outlines {
		if feedURL := strings.TrimSpace(outline.XMLURL); feedURL != "" {
			name := cleanText(outline.Title)
			if name == "" {
				name = cleanText(outline.Text)
			}
			if name == "" {
				name = feedURL
			}

			*result = append(*result, OPMLFeed{
				URL:  feedURL,
				Name: name,
			})
		}

		if len(outline.Outlines) > 0 {
			extractFeeds(result, outline.Outlines)
		}
	}
}
