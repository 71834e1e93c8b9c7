package library

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"

	"cdstash/logger"
	"cdstash/model"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// DefaultSeed 内置的种子目录
//
//go:embed seed_catalog.yaml
var DefaultSeed []byte

// flexList 接受单个字符串或字符串列表
type flexList []string

func (l *flexList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = flexList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return errors.Newf("line %d: expected a string or a list of strings", value.Line)
	}
}

type seedTrack struct {
	Number   int      `yaml:"number"`
	Disc     int      `yaml:"disc"`
	Title    string   `yaml:"title"`
	Duration string   `yaml:"duration"`
	Artists  flexList `yaml:"artists"`
	Audio    string   `yaml:"audio"`
}

type seedAlbum struct {
	Title           string      `yaml:"title"`
	Artist          flexList    `yaml:"artist"`
	Year            int         `yaml:"year"`
	Genre           flexList    `yaml:"genre"`
	Label           string      `yaml:"label"`
	About           string      `yaml:"about"`
	Cover           string      `yaml:"cover"`
	ReleaseType     string      `yaml:"releaseType"`
	Format          string      `yaml:"format"`
	Barcode         string      `yaml:"barcode"`
	CountryOfOrigin string      `yaml:"countryOfOrigin"`
	DurationTotal   string      `yaml:"durationTotal"`
	SeparateTracks  bool        `yaml:"separateTracks"`
	Tracks          []seedTrack `yaml:"tracks"`
}

type seedFile struct {
	Albums []seedAlbum `yaml:"albums"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (t seedTrack) toModel() model.Track {
	return model.Track{
		Title:          t.Title,
		Duration:       optional(t.Duration),
		TrackNumber:    t.Number,
		DiscNumber:     t.Disc,
		Artists:        model.NewStringList(t.Artists...),
		AudioReference: optional(t.Audio),
	}
}

func (a seedAlbum) toModel() (model.Album, []model.Track) {
	album := model.Album{
		Title:           a.Title,
		Artist:          model.NewStringList(a.Artist...),
		Year:            a.Year,
		Genre:           model.NewStringList(a.Genre...),
		Label:           a.Label,
		About:           a.About,
		Cover:           a.Cover,
		ReleaseType:     a.ReleaseType,
		Format:          a.Format,
		Barcode:         optional(a.Barcode),
		CountryOfOrigin: a.CountryOfOrigin,
		DurationTotal:   a.DurationTotal,
	}
	tracks := make([]model.Track, len(a.Tracks))
	for i, t := range a.Tracks {
		tracks[i] = t.toModel()
	}
	if a.SeparateTracks {
		return album, tracks
	}
	album.Tracks = tracks
	return album, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// albumEntry 把已有专辑转换成文件中的形态，作为编辑的底稿
func albumEntry(a model.Album) seedAlbum {
	entry := seedAlbum{
		Title:           a.Title,
		Artist:          flexList(a.Artist),
		Year:            a.Year,
		Genre:           flexList(a.Genre),
		Label:           a.Label,
		About:           a.About,
		Cover:           a.Cover,
		ReleaseType:     a.ReleaseType,
		Format:          a.Format,
		Barcode:         deref(a.Barcode),
		CountryOfOrigin: a.CountryOfOrigin,
		DurationTotal:   a.DurationTotal,
		Tracks:          make([]seedTrack, len(a.Tracks)),
	}
	for i, t := range a.Tracks {
		entry.Tracks[i] = seedTrack{
			Number:   t.TrackNumber,
			Disc:     t.DiscNumber,
			Title:    t.Title,
			Duration: deref(t.Duration),
			Artists:  flexList(t.Artists),
			Audio:    deref(t.AudioReference),
		}
	}
	return entry
}

// ParseAlbum 解析单张专辑的描述：JSON 使用 API 的专辑格式，YAML 使用种子目录中的专辑格式
func ParseAlbum(data []byte) (model.Album, error) {
	return PatchAlbum(model.Album{}, data)
}

// PatchAlbum 以 current 为底稿解析专辑描述：文件中出现的字段覆盖原值，未出现的保持不变。
// tracks 出现时整体替换曲目列表，此时若未同时给出 durationTotal 则清空旧的总时长
func PatchAlbum(current model.Album, data []byte) (model.Album, error) {
	trimmed := bytes.TrimSpace(data)
	var (
		album model.Album
		err   error
	)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		album, err = patchAlbumJSON(current, trimmed)
	} else {
		album, err = patchAlbumYAML(current, data)
	}
	if err != nil {
		return model.Album{}, err
	}
	album.ID = current.ID
	album.CreatedAt = current.CreatedAt
	return album, nil
}

func patchAlbumJSON(current model.Album, data []byte) (model.Album, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return model.Album{}, errors.Wrap(err, "failed to parse album JSON")
	}
	album := current.Clone()
	if _, ok := keys["tracks"]; ok {
		// encoding/json 会复用已有切片元素，先清空
		album.Tracks = nil
		if _, ok := keys["durationTotal"]; !ok {
			album.DurationTotal = ""
		}
	}
	if err := json.Unmarshal(data, &album); err != nil {
		return model.Album{}, errors.Wrap(err, "failed to parse album JSON")
	}
	return album, nil
}

func patchAlbumYAML(current model.Album, data []byte) (model.Album, error) {
	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return model.Album{}, errors.Wrap(err, "failed to parse album YAML")
	}
	entry := albumEntry(current)
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return model.Album{}, errors.Wrap(err, "failed to parse album YAML")
	}
	if _, ok := keys["tracks"]; ok {
		if _, ok := keys["durationTotal"]; !ok {
			entry.DurationTotal = ""
		}
	}
	// 单张专辑的曲目总是内嵌
	entry.SeparateTracks = false
	album, _ := entry.toModel()
	return album, nil
}

// SeedResult 种子写入结果
type SeedResult struct {
	Skipped  bool
	Existing int64
	Albums   int
	Tracks   int
}

// Seed 解析 YAML 目录并写入；库中已有专辑且未指定 force 时跳过
func (s *Service) Seed(ctx context.Context, data []byte, force bool) (SeedResult, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return SeedResult{}, errors.Wrap(err, "failed to parse seed catalog")
	}

	count, err := s.albums.Count(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	if count > 0 && !force {
		logger.Info("Catalog already seeded", logger.Int64("albums", count))
		return SeedResult{Skipped: true, Existing: count}, nil
	}

	result := SeedResult{Existing: count}
	for i, entry := range file.Albums {
		album, separate := entry.toModel()
		created, err := s.CreateAlbum(ctx, album)
		if err != nil {
			return result, errors.Wrapf(err, "seed album %d (%s)", i, entry.Title)
		}
		result.Albums++
		result.Tracks += len(created.Tracks)

		if len(separate) > 0 {
			imported, err := s.ImportTracks(ctx, created.ID, separate)
			if err != nil {
				return result, errors.Wrapf(err, "seed tracks of %s", entry.Title)
			}
			result.Tracks += len(imported)
		}
	}
	logger.Info("Catalog seeded",
		logger.Int("albums", result.Albums),
		logger.Int("tracks", result.Tracks))
	return result, nil
}
