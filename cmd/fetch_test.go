package cmd

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katarogu/katarogu/internal/config"
	"github.com/katarogu/katarogu/internal/fetch"
)

func TestFetchAll(t *testing.T) {
	endpoint := "https://api.example.test/ItemList"
	client := fetch.NewClient(endpoint, "id", "aff", 5*time.Second)
	httpmock.ActivateNonDefault(client.HTTP)
	defer httpmock.DeactivateAndReset()

	pages := map[string]string{
		"date": `{"result": {"status": 200, "items": [
			{"content_id": "a", "title": "A", "date": "2024-03-02"},
			{"content_id": "b", "title": "B", "date": "2024-03-01"}
		]}}`,
		"rank": `{"result": {"status": 200, "items": [
			{"content_id": "b", "title": "B"},
			{"content_id": "c", "title": "C"}
		]}}`,
	}
	httpmock.RegisterResponder("GET", endpoint,
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewStringResponse(200, pages[req.URL.Query().Get("sort")]), nil
		})

	fc := &config.Fetch{Hits: 100, DatePages: 1, RankPages: 1, SleepMS: 0}
	works, err := fetchAll(context.Background(), client, fc)
	require.NoError(t, err)

	require.Len(t, works, 3, "records seen on both listings collapse to one")

	byID := map[string]int{}
	for i, w := range works {
		byID[w.ID] = i
	}
	assert.Nil(t, works[byID["a"]].Rank)
	require.NotNil(t, works[byID["b"]].Rank)
	assert.Equal(t, 1, *works[byID["b"]].Rank, "rank listing assigns 1-based positions")
	require.NotNil(t, works[byID["c"]].Rank)
	assert.Equal(t, 2, *works[byID["c"]].Rank)
	assert.Equal(t, "2024-03-01", works[byID["b"]].ReleaseDate,
		"date-page fields survive the rank-page merge")
}

func TestFetchAllUpstreamError(t *testing.T) {
	endpoint := "https://api.example.test/ItemList"
	client := fetch.NewClient(endpoint, "id", "aff", 5*time.Second)
	httpmock.ActivateNonDefault(client.HTTP)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", endpoint,
		httpmock.NewStringResponder(200, `{"result": {"status": "400"}}`))

	_, err := fetchAll(context.Background(), client, &config.Fetch{Hits: 10, DatePages: 1})
	assert.Error(t, err)
}
