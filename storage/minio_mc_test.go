package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)
	objects := []ObjectInfo{
		{Key: "audio/nevermind/01.mp3", Size: 4 << 20, LastModified: t1},
		{Key: "audio/abbey-road/01.FLAC", Size: 30 << 20, LastModified: t2},
		{Key: "covers/nevermind", Size: 200 << 10, LastModified: t1, ContentType: "image/jpeg"},
		{Key: "notes.txt", Size: 10, LastModified: t1},
	}

	stats := Summarize(objects)
	assert.EqualValues(t, 4, stats.TotalObjects)
	assert.EqualValues(t, 4<<20+30<<20+200<<10+10, stats.TotalSize)
	assert.Equal(t, t2, stats.LastModified)
	assert.Equal(t, map[string]int64{"audio": 2, "image": 1, "other": 1}, stats.ByKind)
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil)
	assert.Zero(t, stats.TotalObjects)
	assert.True(t, stats.LastModified.IsZero())
}
