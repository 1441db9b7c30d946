package exporter

import (
	"fmt"
	"strings"

	"ytcarchiver/pkg/post"
)

// renderPost produces the human-readable post.txt content. Shares wrap
// the original post's rendering under the sharer's own header.
func renderPost(p *post.NormalizedPost, images []string) string {
	membersTag := ""
	if p.MembersOnly {
		membersTag = " - Members only"
	}

	rendered := fmt.Sprintf("%s - %s%s\n\n%s\n\n%s\n\n%s Likes\n",
		p.Author,
		p.PublishedTime,
		membersTag,
		p.Text,
		renderAttachments(p, images),
		p.LikeCount,
	)

	if p.Share != nil {
		rendered = fmt.Sprintf("%s - %s\n\n%s\n\n---\nOriginal Post:\n\n%s\n",
			p.Share.Author,
			p.Share.Time,
			p.Share.Text,
			rendered,
		)
	}

	return rendered
}

// renderAttachments joins the linked-video, image and poll blocks,
// omitting empty sections
func renderAttachments(p *post.NormalizedPost, images []string) string {
	var sections []string

	if p.HasVideo() {
		sections = append(sections, renderVideo(p.Video))
	}
	if len(images) > 0 {
		sections = append(sections, "Images:\n"+strings.Join(images, "\n"))
	}
	if len(p.Poll) > 0 {
		sections = append(sections, renderPoll(p.Poll))
	}

	return strings.Join(sections, "\n\n")
}

func renderVideo(v post.Video) string {
	membersTag := ""
	if v.MembersOnly {
		membersTag = " (Members only)"
	}

	return fmt.Sprintf("Linked Video:\n%s%s\n%s\n%s",
		v.Title, membersTag, v.PublishedTime, v.URL)
}

func renderPoll(options []post.PollOption) string {
	lines := make([]string, 0, len(options))

	for _, option := range options {
		line := "[" + option.Label + "]"
		if option.Votes != "" {
			line += " - " + option.Votes
		}
		if option.Percentage != "" {
			line += " - " + option.Percentage
		}
		lines = append(lines, line)
	}

	return "Poll:\n" + strings.Join(lines, "\n")
}
