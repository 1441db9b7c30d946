// Package post normalizes raw feed records into flat content records.
// The upstream payload is unversioned and drifts, so every lookup goes
// through gjson paths with typed defaults instead of a rigid schema.
package post

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// MissingPostID is recorded when the source omits a post id
	MissingPostID = "no_id_found"

	// missingShareID is the share wrapper's equivalent sentinel
	missingShareID = "id_not_found"
)

// PollOption holds one poll choice's tally
type PollOption struct {
	Label      string
	Votes      string
	Percentage string
}

// Share carries the reposter's details when a record is a share
// wrapper. PostID identifies the share itself and supersedes the inner
// post's id for output naming and ledger lookups.
type Share struct {
	Author string
	Text   string
	Time   string
	PostID string
}

// Video holds linked-video metadata attached to a post
type Video struct {
	Title         string
	ThumbnailURL  string
	PublishedTime string
	URL           string
	MembersOnly   bool
}

// NormalizedPost is the flat content record produced from one raw feed
// record. Every field has a usable zero value; normalization never
// fails.
type NormalizedPost struct {
	PostID         string
	Author         string
	PublishedTime  string
	MembersOnly    bool
	Text           string
	LikeCount      string
	AttachedImages []string
	Poll           []PollOption
	Video          Video
	Share          *Share

	// Raw is the inner post renderer the record was normalized from,
	// preserved for the post.json export
	Raw []byte
}

// EffectiveID returns the identifier used for ledger lookups and
// output naming: the share's id for reposts, else the post's own.
func (p *NormalizedPost) EffectiveID() string {
	if p.Share != nil && p.Share.PostID != "" {
		return p.Share.PostID
	}
	return p.PostID
}

// HasVideo reports whether a linked video was attached
func (p *NormalizedPost) HasVideo() bool {
	return p.Video.URL != ""
}

// Normalize maps one raw feed record to a NormalizedPost. The record
// is the thread renderer wrapper as it appears in a feed page's item
// list.
func Normalize(raw []byte) *NormalizedPost {
	root := gjson.ParseBytes(raw).Get("backstagePostThreadRenderer.post")

	var inner gjson.Result
	var share *Share

	if shared := root.Get("sharedPostRenderer"); shared.Exists() {
		inner = shared.Get("originalPost.backstagePostRenderer")
		share = normalizeShare(shared)
	} else {
		inner = root.Get("backstagePostRenderer")
	}

	p := normalizePost(inner)
	p.Share = share
	return p
}

func normalizeShare(shared gjson.Result) *Share {
	return &Share{
		PostID: stringOr(shared.Get("postId"), missingShareID),
		Author: stringOr(shared.Get("displayName.runs.0.text"), "N/A"),
		Text:   flattenRuns(shared.Get("content.runs")),
		Time:   shared.Get("publishedTimeText.runs.0.text").String(),
	}
}

func normalizePost(post gjson.Result) *NormalizedPost {
	p := &NormalizedPost{
		PostID:        stringOr(post.Get("postId"), MissingPostID),
		Author:        post.Get("authorText.runs.0.text").String(),
		PublishedTime: post.Get("publishedTimeText.runs.0.text").String(),
		MembersOnly:   post.Get("sponsorsOnlyBadge").Exists(),
		LikeCount:     stringOr(post.Get("voteCount.simpleText"), "0"),
		Text:          flattenRuns(post.Get("contentText.runs")),
	}

	if post.Exists() {
		p.Raw = []byte(post.Raw)
	} else {
		p.Raw = []byte("{}")
	}

	attachment := post.Get("backstageAttachment")
	p.AttachedImages = collectImages(attachment)
	p.Poll = collectPoll(attachment.Get("pollRenderer.choices"))
	p.Video = collectVideo(attachment.Get("videoRenderer"))

	return p
}

// flattenRuns concatenates text runs, appending each run's navigation
// link in parenthesized form. Site-relative links are made absolute.
func flattenRuns(runs gjson.Result) string {
	var b strings.Builder

	runs.ForEach(func(_, run gjson.Result) bool {
		text := run.Get("text").String()
		link := run.Get("navigationEndpoint.commandMetadata.webCommandMetadata.url").String()

		if strings.HasPrefix(link, "/") {
			link = "https://youtube.com" + link
		}

		if link != "" && text != link {
			b.WriteString(text)
			b.WriteString(" (")
			b.WriteString(link)
			b.WriteString(")")
		} else {
			b.WriteString(text)
		}
		return true
	})

	return b.String()
}

// collectImages flattens single-image and multi-image attachments into
// one ordered URL list
func collectImages(attachment gjson.Result) []string {
	var urls []string

	appendThumbnails := func(container gjson.Result) {
		container.Get("backstageImageRenderer.image.thumbnails").ForEach(
			func(_, thumb gjson.Result) bool {
				if url := thumb.Get("url").String(); url != "" {
					urls = append(urls, url)
				}
				return true
			})
	}

	appendThumbnails(attachment)

	attachment.Get("postMultiImageRenderer.images").ForEach(
		func(_, image gjson.Result) bool {
			appendThumbnails(image)
			return true
		})

	return urls
}

// collectPoll extracts poll choices in display order. Labels are not
// guaranteed unique upstream; a later duplicate overwrites the earlier
// tally.
func collectPoll(choices gjson.Result) []PollOption {
	var options []PollOption
	index := make(map[string]int)

	choices.ForEach(func(_, choice gjson.Result) bool {
		label := stringOr(choice.Get("text.runs.0.text"), "Null")

		percentage := choice.Get("votePercentage.simpleText").String()
		if percentage == "" {
			percentage = choice.Get("votePercentageIfSelected.simpleText").String()
		}

		option := PollOption{
			Label:      label,
			Votes:      choice.Get("numVotes").String(),
			Percentage: percentage,
		}

		if i, seen := index[label]; seen {
			options[i] = option
		} else {
			index[label] = len(options)
			options = append(options, option)
		}
		return true
	})

	return options
}

func collectVideo(video gjson.Result) Video {
	v := Video{
		Title:         video.Get("title.runs.0.text").String(),
		PublishedTime: video.Get("publishedTimeText.simpleText").String(),
	}

	thumbnails := video.Get("thumbnail.thumbnails").Array()
	if len(thumbnails) > 0 {
		url := thumbnails[len(thumbnails)-1].Get("url").String()
		// drop the query string, the bare path serves full resolution
		if i := strings.Index(url, "?"); i >= 0 {
			url = url[:i]
		}
		v.ThumbnailURL = url
	}

	link := video.Get("navigationEndpoint.commandMetadata.webCommandMetadata.url").String()
	if strings.HasPrefix(link, "/") {
		link = "https://www.youtube.com" + link
	}
	v.URL = link

	video.Get("badges").ForEach(func(_, badge gjson.Result) bool {
		if badge.Get("metadataBadgeRenderer.label").String() == "Members only" {
			v.MembersOnly = true
			return false
		}
		return true
	})

	return v
}

// stringOr returns the result's string value, or fallback when the
// field is absent or empty
func stringOr(r gjson.Result, fallback string) string {
	if s := r.String(); s != "" {
		return s
	}
	return fallback
}
