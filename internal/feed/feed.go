// Package feed generates the podcast RSS document for rendered episodes.
package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tetsuyaohira/tech-talk-cast/internal/format"
)

const itunesNS = "http://www.itunes.com/dtds/podcast-1.0.dtd"

// Channel describes the podcast itself.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	Author      string
	ImageURL    string
}

// Episode describes one published episode.
type Episode struct {
	Title           string
	Description     string
	AudioURL        string
	SizeBytes       int64
	DurationSeconds float64
	PublishedAt     time.Time
	GUID            string
}

type rssDoc struct {
	XMLName  xml.Name   `xml:"rss"`
	Version  string     `xml:"version,attr"`
	ItunesNS string     `xml:"xmlns:itunes,attr"`
	Channel  rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	Description string      `xml:"description"`
	Language    string      `xml:"language,omitempty"`
	Author      string      `xml:"itunes:author,omitempty"`
	Image       *rssImage   `xml:"itunes:image,omitempty"`
	Items       []rssItem   `xml:"item"`
}

type rssImage struct {
	Href string `xml:"href,attr"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Description string       `xml:"description,omitempty"`
	GUID        rssGUID      `xml:"guid"`
	PubDate     string       `xml:"pubDate"`
	Enclosure   rssEnclosure `xml:"enclosure"`
	Duration    string       `xml:"itunes:duration,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Write renders the RSS document for the channel and its episodes.
func Write(w io.Writer, ch Channel, episodes []Episode) error {
	doc := rssDoc{
		Version:  "2.0",
		ItunesNS: itunesNS,
		Channel: rssChannel{
			Title:       ch.Title,
			Link:        ch.Link,
			Description: ch.Description,
			Language:    ch.Language,
			Author:      ch.Author,
		},
	}
	if ch.ImageURL != "" {
		doc.Channel.Image = &rssImage{Href: ch.ImageURL}
	}

	for _, ep := range episodes {
		guid := ep.GUID
		if guid == "" {
			guid = ep.AudioURL
		}
		item := rssItem{
			Title:       ep.Title,
			Description: ep.Description,
			GUID:        rssGUID{IsPermaLink: false, Value: guid},
			PubDate:     ep.PublishedAt.UTC().Format(time.RFC1123Z),
			Enclosure: rssEnclosure{
				URL:    ep.AudioURL,
				Length: ep.SizeBytes,
				Type:   "audio/mpeg",
			},
		}
		if ep.DurationSeconds > 0 {
			item.Duration = format.Duration(time.Duration(ep.DurationSeconds * float64(time.Second)))
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile renders the RSS document to path.
func WriteFile(path string, ch Channel, episodes []Episode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create feed file: %w", err)
	}
	werr := Write(f, ch, episodes)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}
