package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
	<channel>
		<title>Example Feed</title>
		<item>
			<title>Feed Item A</title>
			<link>https://example.com/a</link>
		</item>
		<item>
			<title>Feed Item B</title>
			<link>https://example.com/b</link>
		</item>
		<item>
			<title>No Link Here</title>
		</item>
	</channel>
</rss>`

func TestExtractFeed_MapsItemsToRecords(t *testing.T) {
	records, err := extractFeed([]byte(rssFixture))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Feed Item A", *records[0].Title)
	assert.Equal(t, "https://example.com/a", *records[0].URL)
	assert.Equal(t, "Feed Item B", *records[1].Title)
	assert.Equal(t, "https://example.com/b", *records[1].URL)

	// The linkless item keeps its title but has no url, so the filter
	// will drop it before persistence.
	assert.Equal(t, "No Link Here", *records[2].Title)
	assert.Nil(t, records[2].URL)
	assert.Len(t, filterComplete(records), 2)
}

func TestExtractFeed_Malformed(t *testing.T) {
	_, err := extractFeed([]byte("not a feed at all"))
	assert.Error(t, err)
}
