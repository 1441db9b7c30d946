package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ytcarchiver/pkg/post"
)

func TestRenderPlainPost(t *testing.T) {
	p := &post.NormalizedPost{
		PostID:        "UgA",
		Author:        "Author",
		PublishedTime: "2 days ago",
		Text:          "body text",
		LikeCount:     "42",
	}

	expected := "Author - 2 days ago\n\nbody text\n\n\n\n42 Likes\n"
	assert.Equal(t, expected, renderPost(p, nil))
}

func TestRenderMembersOnlyHeader(t *testing.T) {
	p := &post.NormalizedPost{
		Author:        "Author",
		PublishedTime: "now",
		MembersOnly:   true,
		LikeCount:     "0",
	}

	assert.Contains(t, renderPost(p, nil), "Author - now - Members only\n")
}

func TestRenderAttachedContentBlocks(t *testing.T) {
	p := &post.NormalizedPost{
		Author:        "Author",
		PublishedTime: "now",
		LikeCount:     "1",
		Poll: []post.PollOption{
			{Label: "Yes", Votes: "10", Percentage: "80%"},
			{Label: "No", Percentage: "20%"},
		},
		Video: post.Video{
			Title:         "Clip",
			PublishedTime: "1 week ago",
			URL:           "https://www.youtube.com/watch?v=abc",
			MembersOnly:   true,
		},
	}
	images := []string{"https://img/a=s0", "https://img/b=s0"}

	rendered := renderPost(p, images)

	assert.Contains(t, rendered,
		"Linked Video:\nClip (Members only)\n1 week ago\nhttps://www.youtube.com/watch?v=abc")
	assert.Contains(t, rendered, "Images:\nhttps://img/a=s0\nhttps://img/b=s0")
	assert.Contains(t, rendered, "Poll:\n[Yes] - 10 - 80%\n[No] - 20%")
}

func TestRenderOmitsEmptySections(t *testing.T) {
	p := &post.NormalizedPost{Author: "A", PublishedTime: "t", LikeCount: "0"}

	rendered := renderPost(p, nil)
	assert.NotContains(t, rendered, "Linked Video:")
	assert.NotContains(t, rendered, "Images:")
	assert.NotContains(t, rendered, "Poll:")
}

func TestRenderSharedPostWrapsOriginal(t *testing.T) {
	p := &post.NormalizedPost{
		Author:        "Original Author",
		PublishedTime: "1 month ago",
		Text:          "original body",
		LikeCount:     "5",
		Share: &post.Share{
			Author: "Sharer",
			Time:   "2 hours ago",
			Text:   "look at this",
			PostID: "UgShare",
		},
	}

	expected := "Sharer - 2 hours ago\n\nlook at this\n\n---\nOriginal Post:\n\n" +
		"Original Author - 1 month ago\n\noriginal body\n\n\n\n5 Likes\n\n"
	assert.Equal(t, expected, renderPost(p, nil))
}
