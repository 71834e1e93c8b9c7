package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"cdstash/core/resolver"
	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	playlistName        string
	playlistDescription string
)

var playlistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "列出播放列表",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _ := openCatalog()
		if err := store.EnsurePlaylists(cmd.Context()); err != nil {
			return err
		}
		return renderPlaylists(cmd.OutOrStdout(), store.Playlists().Playlists, time.Now())
	},
}

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "管理单个播放列表",
}

var playlistShowCmd = &cobra.Command{
	Use:   "show <playlistId>",
	Short: "显示播放列表中仍可播放的曲目",
	Long:  `加载专辑与播放列表并解析条目；专辑已删除或曲目下标越界的条目会被跳过并计数。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _ := openCatalog()
		ctx := cmd.Context()
		if err := store.EnsureAlbums(ctx); err != nil {
			return err
		}
		if err := store.EnsurePlaylists(ctx); err != nil {
			return err
		}
		p, ok := store.Playlist(args[0])
		if !ok {
			return errors.Newf("playlist %q not found", args[0])
		}
		report, _ := store.Resolve(p.ID)
		return renderPlaylist(cmd.OutOrStdout(), p, report)
	},
}

var playlistCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "创建播放列表",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, pipeline := openCatalog()
		p, err := pipeline.CreatePlaylist(cmd.Context(), model.Playlist{Name: args[0], Description: playlistDescription})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已创建播放列表 %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

var playlistUpdateCmd = &cobra.Command{
	Use:   "update <playlistId>",
	Short: "修改播放列表名称或描述",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, pipeline := openCatalog()
		ctx := cmd.Context()
		p, err := c.GetPlaylist(ctx, args[0])
		if err != nil {
			return err
		}
		if err := applyPlaylistFlags(cmd, &p); err != nil {
			return err
		}
		p, err = pipeline.UpdatePlaylist(ctx, p.ID, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已更新播放列表 %s (%s)\n", p.Name, p.ID)
		return nil
	},
}

// applyPlaylistFlags 只修改命令行上显式给出的字段
func applyPlaylistFlags(cmd *cobra.Command, p *model.Playlist) error {
	flags := cmd.Flags()
	if !flags.Changed("name") && !flags.Changed("description") {
		return errors.New("nothing to update, pass --name and/or --description")
	}
	if flags.Changed("name") {
		p.Name = playlistName
	}
	if flags.Changed("description") {
		p.Description = playlistDescription
	}
	return nil
}

var playlistAddCmd = &cobra.Command{
	Use:   "add <playlistId> <albumId> <trackIndex>",
	Short: "把专辑中的曲目追加到播放列表末尾",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[2])
		if err != nil {
			return errors.Newf("trackIndex must be an integer, got %q", args[2])
		}
		_, _, pipeline := openCatalog()
		p, err := pipeline.AppendPlaylistTrack(cmd.Context(), args[0], args[1], index)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "播放列表 %s 现在有 %d 个条目\n", p.Name, len(p.Tracks))
		return nil
	},
}

var playlistRemoveCmd = &cobra.Command{
	Use:   "remove <playlistId> <ordinal>",
	Short: "按位置移除播放列表条目",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ordinal, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Newf("ordinal must be an integer, got %q", args[1])
		}
		_, _, pipeline := openCatalog()
		p, err := pipeline.RemovePlaylistTrack(cmd.Context(), args[0], ordinal)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "播放列表 %s 现在有 %d 个条目\n", p.Name, len(p.Tracks))
		return nil
	},
}

var playlistDeleteCmd = &cobra.Command{
	Use:   "delete <playlistId>",
	Short: "删除播放列表",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, pipeline := openCatalog()
		if err := pipeline.DeletePlaylist(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已删除播放列表 %s\n", args[0])
		return nil
	},
}

func renderPlaylists(out io.Writer, playlists []model.Playlist, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENTRIES\tCREATED")
	for _, p := range playlists {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Name, len(p.Tracks), humanize.RelTime(p.CreatedAt, now, "ago", "from now"))
	}
	return w.Flush()
}

func renderPlaylist(out io.Writer, p model.Playlist, report resolver.Report) error {
	fmt.Fprintln(out, p.Name)
	if p.Description != "" {
		fmt.Fprintln(out, p.Description)
	}
	fmt.Fprintln(out)

	if len(report.Entries) == 0 {
		fmt.Fprintln(out, "(no playable tracks)")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTITLE\tALBUM\tARTIST\tDURATION")
		for _, e := range report.Entries {
			d := "-"
			if e.Track.Duration != nil {
				d = *e.Track.Duration
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Ordinal, e.Track.Title, e.Album.Title, e.Album.Artist.Join(", "), d)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if n := len(report.Dropped); n > 0 {
		fmt.Fprintf(out, "\n%d %s skipped (album deleted or track missing)\n", n, plural(n, "entry", "entries"))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	rootCmd.AddCommand(playlistsCmd, playlistCmd)
	playlistCmd.AddCommand(playlistShowCmd, playlistCreateCmd, playlistUpdateCmd, playlistAddCmd, playlistRemoveCmd, playlistDeleteCmd)

	playlistCreateCmd.Flags().StringVarP(&playlistDescription, "description", "d", "", "播放列表描述")
	playlistUpdateCmd.Flags().StringVarP(&playlistName, "name", "n", "", "新的名称")
	playlistUpdateCmd.Flags().StringVarP(&playlistDescription, "description", "d", "", "新的描述，空串表示清空")

	playlistCmd.Example = `  cdstash playlist create "Late night" -d "quiet records"
  cdstash playlist add <playlistId> <albumId> 0
  cdstash playlist show <playlistId>
  cdstash playlist update <playlistId> -n "Late night jazz"
  cdstash playlist remove <playlistId> 0`
}
