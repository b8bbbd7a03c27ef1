package podcast

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rssFeed mirrors the subset of RSS 2.0 (+ itunes duration/image) the app
// consumes.
type rssFeed struct {
	Channel struct {
		Title       string `xml:"title"`
		Description string `xml:"description"`
		Image       struct {
			URL string `xml:"url"`
		} `xml:"image"`
		ItunesImage struct {
			Href string `xml:"href,attr"`
		} `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd image"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Duration    string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	Enclosure   struct {
		URL  string `xml:"url,attr"`
		Type string `xml:"type,attr"`
	} `xml:"enclosure"`
}

// Feed is a parsed podcast feed.
type Feed struct {
	Title       string
	Description string
	ImageURL    string
	Items       []FeedItem
}

type FeedItem struct {
	GUID        string
	Title       string
	Description string
	AudioURL    string
	DurationSec int
	PublishedAt *time.Time
}

func parseFeed(data []byte) (*Feed, error) {
	var raw rssFeed
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}
	if raw.Channel.Title == "" {
		return nil, fmt.Errorf("feed has no channel title")
	}

	feed := &Feed{
		Title:       strings.TrimSpace(raw.Channel.Title),
		Description: strings.TrimSpace(raw.Channel.Description),
		ImageURL:    raw.Channel.Image.URL,
	}
	if feed.ImageURL == "" {
		feed.ImageURL = raw.Channel.ItunesImage.Href
	}

	for _, item := range raw.Channel.Items {
		if item.Enclosure.URL == "" {
			continue // not a playable episode
		}
		fi := FeedItem{
			GUID:        strings.TrimSpace(item.GUID),
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			AudioURL:    item.Enclosure.URL,
			DurationSec: parseDuration(item.Duration),
		}
		if fi.GUID == "" {
			fi.GUID = item.Enclosure.URL
		}
		if t, err := parsePubDate(item.PubDate); err == nil {
			fi.PublishedAt = &t
		}
		feed.Items = append(feed.Items, fi)
	}

	return feed, nil
}

// parseDuration accepts plain seconds, MM:SS, or HH:MM:SS.
func parseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

func parsePubDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pubDate %q", s)
}
