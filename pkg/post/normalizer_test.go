package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrap(renderer string) []byte {
	return []byte(`{"backstagePostThreadRenderer": {"post": {"backstagePostRenderer": ` + renderer + `}}}`)
}

func TestNormalizeBasicPost(t *testing.T) {
	raw := wrap(`{
		"postId": "Ug1234",
		"authorText": {"runs": [{"text": "Channel Name"}]},
		"publishedTimeText": {"runs": [{"text": "2 days ago"}]},
		"voteCount": {"simpleText": "1.2K"},
		"contentText": {"runs": [{"text": "Hello "}, {"text": "world"}]}
	}`)

	p := Normalize(raw)

	assert.Equal(t, "Ug1234", p.PostID)
	assert.Equal(t, "Ug1234", p.EffectiveID())
	assert.Equal(t, "Channel Name", p.Author)
	assert.Equal(t, "2 days ago", p.PublishedTime)
	assert.Equal(t, "1.2K", p.LikeCount)
	assert.Equal(t, "Hello world", p.Text)
	assert.False(t, p.MembersOnly)
	assert.Nil(t, p.Share)
	assert.False(t, p.HasVideo())
	assert.Empty(t, p.AttachedImages)
	assert.Empty(t, p.Poll)
}

func TestNormalizeEmptyRecord(t *testing.T) {
	p := Normalize([]byte(`{}`))

	assert.Equal(t, MissingPostID, p.PostID)
	assert.Equal(t, "", p.Author)
	assert.Equal(t, "", p.Text)
	assert.Equal(t, "0", p.LikeCount)
	assert.False(t, p.MembersOnly)
	assert.Nil(t, p.Share)
	assert.Empty(t, p.AttachedImages)
	assert.Equal(t, []byte("{}"), p.Raw)
}

func TestNormalizeMembersOnlyBadge(t *testing.T) {
	raw := wrap(`{"postId": "Ug1", "sponsorsOnlyBadge": {"sponsorsOnlyBadgeRenderer": {}}}`)

	p := Normalize(raw)
	assert.True(t, p.MembersOnly)
}

func TestTextRunWithLink(t *testing.T) {
	raw := wrap(`{
		"postId": "Ug1",
		"contentText": {"runs": [{
			"text": "click",
			"navigationEndpoint": {"commandMetadata": {"webCommandMetadata": {"url": "/watch?v=1"}}}
		}]}
	}`)

	p := Normalize(raw)
	assert.Equal(t, "click (https://youtube.com/watch?v=1)", p.Text)
}

func TestTextRunLinkEqualToTextIsNotDuplicated(t *testing.T) {
	raw := wrap(`{
		"postId": "Ug1",
		"contentText": {"runs": [{
			"text": "https://example.com/page",
			"navigationEndpoint": {"commandMetadata": {"webCommandMetadata": {"url": "https://example.com/page"}}}
		}]}
	}`)

	p := Normalize(raw)
	assert.Equal(t, "https://example.com/page", p.Text)
}

func TestNormalizeSharedPost(t *testing.T) {
	raw := []byte(`{"backstagePostThreadRenderer": {"post": {"sharedPostRenderer": {
		"postId": "UgShare",
		"displayName": {"runs": [{"text": "Sharer"}]},
		"publishedTimeText": {"runs": [{"text": "1 hour ago"}]},
		"content": {"runs": [{"text": "look at this"}]},
		"originalPost": {"backstagePostRenderer": {
			"postId": "UgInner",
			"authorText": {"runs": [{"text": "Original Author"}]},
			"contentText": {"runs": [{"text": "inner text"}]}
		}}
	}}}}`)

	p := Normalize(raw)

	require.NotNil(t, p.Share)
	assert.Equal(t, "UgShare", p.Share.PostID)
	assert.Equal(t, "Sharer", p.Share.Author)
	assert.Equal(t, "look at this", p.Share.Text)
	assert.Equal(t, "1 hour ago", p.Share.Time)

	assert.Equal(t, "UgInner", p.PostID)
	assert.Equal(t, "Original Author", p.Author)
	assert.Equal(t, "inner text", p.Text)

	// the share's id names the export, not the inner post's
	assert.Equal(t, "UgShare", p.EffectiveID())
}

func TestNormalizeSingleAndMultiImages(t *testing.T) {
	raw := wrap(`{
		"postId": "Ug1",
		"backstageAttachment": {
			"backstageImageRenderer": {"image": {"thumbnails": [
				{"url": "https://img/a=s640"},
				{"url": "https://img/a=s1200"}
			]}},
			"postMultiImageRenderer": {"images": [
				{"backstageImageRenderer": {"image": {"thumbnails": [{"url": "https://img/b=s640"}]}}},
				{"backstageImageRenderer": {"image": {"thumbnails": [{"url": "https://img/c=s640"}]}}}
			]}
		}
	}`)

	p := Normalize(raw)
	assert.Equal(t, []string{
		"https://img/a=s640",
		"https://img/a=s1200",
		"https://img/b=s640",
		"https://img/c=s640",
	}, p.AttachedImages)
}

func TestNormalizePoll(t *testing.T) {
	raw := wrap(`{
		"postId": "Ug1",
		"backstageAttachment": {"pollRenderer": {"choices": [
			{"text": {"runs": [{"text": "Option A"}]}, "numVotes": "12", "votePercentage": {"simpleText": "60%"}},
			{"text": {"runs": [{"text": "Option B"}]}, "votePercentageIfSelected": {"simpleText": "40%"}},
			{"text": {}}
		]}}
	}`)

	p := Normalize(raw)
	require.Len(t, p.Poll, 3)

	assert.Equal(t, PollOption{Label: "Option A", Votes: "12", Percentage: "60%"}, p.Poll[0])
	assert.Equal(t, PollOption{Label: "Option B", Votes: "", Percentage: "40%"}, p.Poll[1])
	assert.Equal(t, "Null", p.Poll[2].Label)
}

func TestNormalizePollDuplicateLabelOverwrites(t *testing.T) {
	raw := wrap(`{
		"postId": "Ug1",
		"backstageAttachment": {"pollRenderer": {"choices": [
			{"text": {"runs": [{"text": "Same"}]}, "numVotes": "1"},
			{"text": {"runs": [{"text": "Same"}]}, "numVotes": "2"}
		]}}
	}`)

	p := Normalize(raw)
	require.Len(t, p.Poll, 1)
	assert.Equal(t, "2", p.Poll[0].Votes)
}

func TestNormalizeLinkedVideo(t *testing.T) {
	raw := wrap(`{
		"postId": "Ug1",
		"backstageAttachment": {"videoRenderer": {
			"title": {"runs": [{"text": "Video Title"}]},
			"thumbnail": {"thumbnails": [
				{"url": "https://i.ytimg.com/vi/x/default.jpg?sqp=abc"},
				{"url": "https://i.ytimg.com/vi/x/maxres.jpg?sqp=def&rs=xyz"}
			]},
			"publishedTimeText": {"simpleText": "3 weeks ago"},
			"navigationEndpoint": {"commandMetadata": {"webCommandMetadata": {"url": "/watch?v=abc"}}},
			"badges": [{"metadataBadgeRenderer": {"label": "Members only"}}]
		}}
	}`)

	p := Normalize(raw)

	require.True(t, p.HasVideo())
	assert.Equal(t, "Video Title", p.Video.Title)
	assert.Equal(t, "https://i.ytimg.com/vi/x/maxres.jpg", p.Video.ThumbnailURL)
	assert.Equal(t, "3 weeks ago", p.Video.PublishedTime)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", p.Video.URL)
	assert.True(t, p.Video.MembersOnly)
	assert.False(t, p.MembersOnly, "video badge must not mark the post itself")
}

func TestRawPreservesInnerRenderer(t *testing.T) {
	raw := wrap(`{"postId": "Ug1", "voteCount": {"simpleText": "5"}}`)

	p := Normalize(raw)
	assert.JSONEq(t, `{"postId": "Ug1", "voteCount": {"simpleText": "5"}}`, string(p.Raw))
}
