package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmidtools/addgene-scraper/internal/filters"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		expected string
		wantErr  string
	}{
		{
			name:     "query with pagination",
			query:    Query{Text: "pLKO.1", PageSize: 3, PageNumber: 1},
			expected: "https://www.addgene.org/search/catalog/plasmids/?q=pLKO.1&page_size=3&page_number=1",
		},
		{
			name:     "empty query omits the q parameter",
			query:    Query{PageSize: 50, PageNumber: 2},
			expected: "https://www.addgene.org/search/catalog/plasmids/?page_size=50&page_number=2",
		},
		{
			name:     "query text is percent-encoded",
			query:    Query{Text: "cas9 & friends", PageSize: 10, PageNumber: 1},
			expected: "https://www.addgene.org/search/catalog/plasmids/?q=cas9+%26+friends&page_size=10&page_number=1",
		},
		{
			name: "filters appended in category order",
			query: Query{
				Text:       "alzheimer",
				PageSize:   20,
				PageNumber: 1,
				Filters: filters.Set{
					Popularity: "high",
					Expression: "mammalian",
				},
			},
			expected: "https://www.addgene.org/search/catalog/plasmids/?q=alzheimer&page_size=20&page_number=1&expression=Mammalian+Expression&popularity=100%2B+requests",
		},
		{
			name:    "page size zero rejected",
			query:   Query{PageSize: 0, PageNumber: 1},
			wantErr: "page_size",
		},
		{
			name:    "page size above source limit rejected",
			query:   Query{PageSize: 51, PageNumber: 1},
			wantErr: "page_size",
		},
		{
			name:    "page number zero rejected",
			query:   Query{PageSize: 10, PageNumber: 0},
			wantErr: "page_number",
		},
		{
			name: "unknown filter token rejected before building",
			query: Query{
				PageSize:   10,
				PageNumber: 1,
				Filters:    filters.Set{Species: "tyrannosaurus_rex"},
			},
			wantErr: "unknown species filter token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildURL("", tt.query)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildURLDeterministic(t *testing.T) {
	query := Query{
		Text:       "GFP reporter",
		PageSize:   25,
		PageNumber: 3,
		Filters: filters.Set{
			Expression:          "yeast",
			Species:             "saccharomyces_cerevisiae",
			PlasmidType:         "single_insert",
			BacterialResistance: "ampicillin",
		},
	}

	first, err := BuildURL("", query)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := BuildURL("", query)
		require.NoError(t, err)
		assert.Equal(t, first, again, "identical inputs must yield byte-identical URLs")
	}
}

func TestBuildURLCustomBase(t *testing.T) {
	got, err := BuildURL("http://127.0.0.1:9999/", Query{PageSize: 5, PageNumber: 1})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999/search/catalog/plasmids/?page_size=5&page_number=1", got)
}

func TestSequencesURL(t *testing.T) {
	assert.Equal(t, "https://www.addgene.org/12345/sequences/", SequencesURL("", 12345))
	assert.Equal(t, "http://localhost:8081/99/sequences/", SequencesURL("http://localhost:8081", 99))
}
