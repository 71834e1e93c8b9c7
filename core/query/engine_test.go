package query

import (
	"testing"

	"cdstash/model"

	"github.com/stretchr/testify/assert"
)

func catalog() []model.Album {
	return []model.Album{
		{ID: "1", Title: "Abbey Road", Artist: model.StringList{"The Beatles"}, Year: 1969, Genre: model.StringList{"Rock"}, Format: "CD", ReleaseType: "Album", CountryOfOrigin: "United Kingdom"},
		{ID: "2", Title: "Nevermind", Artist: model.StringList{"Nirvana"}, Year: 1991, Genre: model.StringList{"Grunge"}, Format: "Cassette", ReleaseType: "Album", CountryOfOrigin: "United States"},
		{ID: "3", Title: "The Dark Side of the Moon", Artist: model.StringList{"Pink Floyd"}, Year: 1973, Genre: model.StringList{"Progressive Rock"}, Format: "Vinyl", ReleaseType: "Album", CountryOfOrigin: "United Kingdom"},
	}
}

func ids(albums []model.Album) []string {
	out := make([]string, len(albums))
	for i, a := range albums {
		out[i] = a.ID
	}
	return out
}

func TestApplyPassThrough(t *testing.T) {
	in := catalog()
	out := Apply(in, Query{Filter: "all"})
	assert.Equal(t, in, out)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := catalog()
	before := catalog()
	out := Apply(in, Query{Sort: SortAlphaDesc})
	out[0].Title = "changed"
	assert.Equal(t, before, in)
}

func TestApplySort(t *testing.T) {
	tests := []struct {
		name string
		sort string
		want []string
	}{
		{name: "year desc", sort: SortYearDesc, want: []string{"2", "3", "1"}},
		{name: "year asc", sort: SortYearAsc, want: []string{"1", "3", "2"}},
		{name: "alpha asc", sort: SortAlphaAsc, want: []string{"1", "2", "3"}},
		{name: "alpha desc", sort: SortAlphaDesc, want: []string{"3", "2", "1"}},
		{name: "unknown key keeps order", sort: "rating-desc", want: []string{"1", "2", "3"}},
		{name: "empty key keeps order", sort: "", want: []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(catalog(), Query{Sort: tt.sort})))
		})
	}
}

func TestSortIsStableAndMissingYearIsZero(t *testing.T) {
	in := []model.Album{
		{ID: "a", Title: "Same", Year: 2000},
		{ID: "b", Title: "No year"},
		{ID: "c", Title: "Same", Year: 2000},
		{ID: "d", Title: "Same", Year: 2000},
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(Apply(in, Query{Sort: SortYearAsc})))
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(Apply(in, Query{Sort: SortYearDesc})))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(Apply(in, Query{Sort: SortAlphaAsc})))
}

func TestAlphaSortIsLocaleAware(t *testing.T) {
	in := []model.Album{
		{ID: "z", Title: "zebra"},
		{ID: "e", Title: "Éclair"},
		{ID: "a", Title: "apple"},
	}
	// 按字节序 "zebra" 会排在 "Éclair" 前面
	assert.Equal(t, []string{"a", "e", "z"}, ids(Apply(in, Query{Sort: SortAlphaAsc})))
}

func TestSearch(t *testing.T) {
	scalar := model.Album{ID: "s", Title: "Nevermind"}
	scalar.Artist = model.NewStringList("Nirvana")
	list := model.Album{ID: "l", Title: "Bleach", Artist: model.StringList{"Nirvana"}}

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "artist case insensitive", search: "nirvana", want: []string{"s", "l"}},
		{name: "title", search: "BLEACH", want: []string{"l"}},
		{name: "no match", search: "floyd", want: []string{}},
		{name: "empty", search: "", want: []string{"s", "l"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply([]model.Album{scalar, list}, Query{Search: tt.search})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSearchMatchesAcrossJoinedLists(t *testing.T) {
	a := model.Album{ID: "x", Title: "Bookends", Artist: model.StringList{"Simon", "Garfunkel"}, Genre: model.StringList{"Folk", "Rock"}}
	assert.Len(t, Apply([]model.Album{a}, Query{Search: "simon garfunkel"}), 1)
	assert.Len(t, Apply([]model.Album{a}, Query{Search: "folk rock"}), 1)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "genre substring", filter: "genre:Rock", want: []string{"1", "3"}},
		{name: "genre case insensitive", filter: "genre:grunge", want: []string{"2"}},
		{name: "origin substring", filter: "origin:kingdom", want: []string{"1", "3"}},
		{name: "format exact", filter: "format:cd", want: []string{"1"}},
		{name: "format is not substring", filter: "format:Cass", want: []string{}},
		{name: "release exact", filter: "release:album", want: []string{"1", "2", "3"}},
		{name: "unknown kind", filter: "label:EMI", want: []string{"1", "2", "3"}},
		{name: "all sentinel", filter: "all", want: []string{"1", "2", "3"}},
		{name: "empty value", filter: "genre:", want: []string{"1", "2", "3"}},
		{name: "value containing colon", filter: "origin:United Kingdom:", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(catalog(), Query{Filter: tt.filter})))
		})
	}
}

func TestFormatFilterRejectsCassetteForCD(t *testing.T) {
	a := model.Album{ID: "c", Title: "Tape", Format: "Cassette"}
	assert.Empty(t, Apply([]model.Album{a}, Query{Filter: "format:CD"}))

	g := model.Album{ID: "g", Title: "Prog", Genre: model.StringList{"Progressive Rock"}}
	assert.Len(t, Apply([]model.Album{g}, Query{Filter: "genre:Rock"}), 1)
}

func TestMissingFieldNeverMatchesActiveFilter(t *testing.T) {
	bare := model.Album{ID: "b", Title: "Bare"}
	for _, f := range []string{"origin:x", "genre:x", "format:x", "release:x"} {
		assert.Empty(t, Apply([]model.Album{bare}, Query{Filter: f}), f)
	}
}

func TestSearchAndFilterCombine(t *testing.T) {
	got := Apply(catalog(), Query{Search: "the", Filter: "genre:rock", Sort: SortYearDesc})
	assert.Equal(t, []string{"3", "1"}, ids(got))
}

func TestParseFilter(t *testing.T) {
	assert.Equal(t, Filter{Kind: KindGenre, Value: "Jazz"}, ParseFilter("Genre: Jazz"))
	assert.Equal(t, Filter{Kind: KindOrigin, Value: "a:b"}, ParseFilter("origin:a:b"))
	assert.False(t, ParseFilter("whatever").Active())
	assert.Equal(t, "all", ParseFilter("").String())
	assert.Equal(t, "format:CD", ParseFilter("format:CD").String())
}

func TestNewEngineFallsBackToEnglish(t *testing.T) {
	e := NewEngine("not a locale!")
	got := e.Apply(catalog(), Query{Sort: SortAlphaAsc})
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}
