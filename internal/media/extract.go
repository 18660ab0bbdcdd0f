// Package media extracts embedded images and video embeds from raw article
// markup. It is pure: it never performs network I/O, it only parses the
// HTML it is given.
package media

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prismfeed/prism/internal/model"
)

var (
	youtubeWatchRe = regexp.MustCompile(`(?i)(?:youtube\.com/watch\?(?:[^"'\s]*&)?v=|youtu\.be/|youtube\.com/embed/|youtube-nocookie\.com/embed/|youtube\.com/shorts/)([A-Za-z0-9_-]{6,20})`)
	vimeoRe        = regexp.MustCompile(`(?i)(?:player\.)?vimeo\.com/(?:video/)?(\d{6,12})`)
)

// Extract scans markup for inline images, iframes, Open Graph / Twitter
// meta tags, video/source tags and video-host anchors. Discovered video
// URLs are normalized to embeddable form where a known transformation
// exists; everything else is kept as a generic iframe descriptor. Output
// is deduplicated by src in first-seen order.
func Extract(rawHTML string) model.Media {
	out := model.Media{Images: []model.Image{}, Videos: []model.Video{}}
	if strings.TrimSpace(rawHTML) == "" {
		return out
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return out
	}

	seenImg := map[string]bool{}
	seenVid := map[string]bool{}

	addImage := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") || seenImg[src] {
			return
		}
		seenImg[src] = true
		out.Images = append(out.Images, model.Image{Src: src})
	}
	addVideo := func(v model.Video) {
		if v.Src == "" || seenVid[v.Src] {
			return
		}
		seenVid[v.Src] = true
		out.Videos = append(out.Videos, v)
	}

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		addImage(src)
	})

	doc.Find(`meta[property="og:image"], meta[name="og:image"], meta[name="twitter:image"], meta[property="twitter:image"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		addImage(content)
	})

	doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		addVideo(normalizeVideo(src))
	})

	doc.Find(`meta[property="og:video"], meta[property="og:video:url"], meta[name="twitter:player"], meta[property="twitter:player"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if strings.TrimSpace(content) == "" {
			return
		}
		addVideo(normalizeVideo(content))
	})

	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		poster, _ := s.Attr("poster")
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			addVideo(model.Video{Kind: "file", Src: strings.TrimSpace(src), Thumbnail: poster})
		}
		s.Find("source[src]").Each(func(_ int, src *goquery.Selection) {
			u, _ := src.Attr("src")
			typ, _ := src.Attr("type")
			if strings.TrimSpace(u) != "" {
				addVideo(model.Video{Kind: "file", Src: strings.TrimSpace(u), Type: typ, Thumbnail: poster})
			}
		})
	})

	// Watch-page links inside the body convert to embeddable players.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if youtubeWatchRe.MatchString(href) || vimeoRe.MatchString(href) {
			addVideo(normalizeVideo(href))
		}
	})

	return out
}

// normalizeVideo converts a raw video URL to an embeddable descriptor.
// YouTube and Vimeo get embed URLs and deterministic thumbnails derived
// from the video ID; anything else stays a generic iframe.
func normalizeVideo(raw string) model.Video {
	raw = strings.TrimSpace(raw)

	if m := youtubeWatchRe.FindStringSubmatch(raw); m != nil {
		id := m[1]
		return model.Video{
			Kind:      "youtube",
			Src:       "https://www.youtube.com/embed/" + id,
			Thumbnail: "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg",
		}
	}

	if m := vimeoRe.FindStringSubmatch(raw); m != nil {
		id := m[1]
		return model.Video{
			Kind:      "vimeo",
			Src:       "https://player.vimeo.com/video/" + id,
			Thumbnail: "https://vumbnail.com/" + id + ".jpg",
		}
	}

	return model.Video{Kind: "iframe", Src: raw}
}

// Merge unions two media sets, deduplicating by src and keeping a's order
// first. Used when page-level extraction supplements feed-level media.
func Merge(a, b model.Media) model.Media {
	out := model.Media{Images: []model.Image{}, Videos: []model.Video{}}
	seenImg := map[string]bool{}
	seenVid := map[string]bool{}

	for _, list := range [][]model.Image{a.Images, b.Images} {
		for _, img := range list {
			if img.Src == "" || seenImg[img.Src] {
				continue
			}
			seenImg[img.Src] = true
			out.Images = append(out.Images, img)
		}
	}
	for _, list := range [][]model.Video{a.Videos, b.Videos} {
		for _, v := range list {
			if v.Src == "" || seenVid[v.Src] {
				continue
			}
			seenVid[v.Src] = true
			out.Videos = append(out.Videos, v)
		}
	}
	return out
}
