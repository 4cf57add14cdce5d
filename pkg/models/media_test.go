package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMediaType(t *testing.T) {
	got, ok := ParseMediaType("movie")
	assert.True(t, ok)
	assert.Equal(t, MediaTypeMovie, got)

	got, ok = ParseMediaType("show")
	assert.True(t, ok)
	assert.Equal(t, MediaTypeShow, got)

	_, ok = ParseMediaType("episode")
	assert.False(t, ok)
	_, ok = ParseMediaType("")
	assert.False(t, ok)
}

func TestMediaRefColumnBinding(t *testing.T) {
	movie := MediaRef{Type: MediaTypeMovie, ID: 7}
	assert.True(t, movie.Valid())
	assert.Equal(t, int64(7), movie.MovieID())
	assert.Nil(t, movie.ShowID())

	show := MediaRef{Type: MediaTypeShow, ID: 9}
	assert.True(t, show.Valid())
	assert.Nil(t, show.MovieID())
	assert.Equal(t, int64(9), show.ShowID())

	assert.False(t, MediaRef{}.Valid())
	assert.False(t, MediaRef{Type: MediaTypeMovie}.Valid())
	assert.False(t, MediaRef{Type: "both", ID: 1}.Valid())
}
