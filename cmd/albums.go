package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"cdstash/client"
	"cdstash/core/catalog"
	"cdstash/core/duration"
	"cdstash/core/library"
	"cdstash/core/query"
	"cdstash/model"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	albumSearch string
	albumFilter string
	albumSort   string
	albumFile   string
)

// openCatalog 创建 HTTP 客户端以及其上的 Store 与 Pipeline
func openCatalog() (*client.Client, *catalog.Store, *catalog.Pipeline) {
	cfg := setup(false)
	c := client.NewClient(cfg.APIBaseURL, cfg.ClientTimeout)
	store := catalog.NewStore(c, query.NewEngine(cfg.CollationLocale))
	return c, store, catalog.NewPipeline(c, store)
}

var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "列出专辑",
	Long:  `从服务端加载全部专辑，按搜索词、过滤条件和排序方式显示。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _ := openCatalog()
		if err := store.EnsureAlbums(cmd.Context()); err != nil {
			return err
		}
		view := store.View(query.Query{Search: albumSearch, Filter: albumFilter, Sort: albumSort})
		return renderAlbums(cmd.OutOrStdout(), view)
	},
}

var albumShowCmd = &cobra.Command{
	Use:   "show <albumId>",
	Short: "显示专辑详情与曲目",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, _ := openCatalog()
		ctx := cmd.Context()
		album, err := c.GetAlbum(ctx, args[0])
		if err != nil {
			return err
		}
		// 曲目接口按碟号、曲目号排序，独立存储的曲目也会返回
		tracks, err := c.ListAlbumTracks(ctx, album.ID)
		if err != nil {
			return err
		}
		album.Tracks = tracks
		return renderAlbum(cmd.OutOrStdout(), album)
	},
}

var albumCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "从 YAML 或 JSON 文件创建专辑",
	Long: `读取专辑描述并创建专辑。JSON 文件使用 API 返回的专辑格式，
YAML 文件使用种子目录中单张专辑的格式。--file - 表示从标准输入读取。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readAlbumFile(cmd, albumFile)
		if err != nil {
			return err
		}
		album, err := library.ParseAlbum(data)
		if err != nil {
			return err
		}
		_, _, pipeline := openCatalog()
		created, err := pipeline.CreateAlbum(cmd.Context(), album)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已创建专辑 %s (%s)\n\n", created.Title, created.ID)
		return renderAlbum(cmd.OutOrStdout(), created)
	},
}

var albumEditCmd = &cobra.Command{
	Use:   "edit <albumId>",
	Short: "用文件中的字段修改专辑",
	Long: `以服务端当前的专辑为底稿，文件中出现的字段覆盖原值，未出现的字段保持不变。
文件中给出 tracks 时整体替换曲目列表。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readAlbumFile(cmd, albumFile)
		if err != nil {
			return err
		}
		c, _, pipeline := openCatalog()
		ctx := cmd.Context()
		current, err := c.GetAlbum(ctx, args[0])
		if err != nil {
			return err
		}
		album, err := library.PatchAlbum(current, data)
		if err != nil {
			return err
		}
		updated, err := pipeline.UpdateAlbum(ctx, current.ID, album)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已更新专辑 %s (%s)\n\n", updated.Title, updated.ID)
		return renderAlbum(cmd.OutOrStdout(), updated)
	},
}

// readAlbumFile 读取 --file 指定的文件，"-" 表示标准输入
func readAlbumFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("--file is required")
	}
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}

var albumDeleteCmd = &cobra.Command{
	Use:   "delete <albumId>",
	Short: "删除专辑",
	Long:  `删除专辑。引用它的播放列表条目保留，在显示播放列表时被跳过。`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, pipeline := openCatalog()
		if err := pipeline.DeleteAlbum(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已删除专辑 %s\n", args[0])
		return nil
	},
}

var albumStreamCmd = &cobra.Command{
	Use:   "stream <albumId> <trackIndex>",
	Short: "获取曲目的播放地址",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Newf("trackIndex must be an integer, got %q", args[1])
		}
		c, _, _ := openCatalog()
		url, err := c.ResolveAudio(cmd.Context(), args[0], index)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func renderAlbums(out io.Writer, albums []model.Album) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tYEAR\tGENRE\tFORMAT\tTRACKS\tLENGTH")
	var known []string
	for _, a := range albums {
		year := "-"
		if a.Year > 0 {
			year = strconv.Itoa(a.Year)
		}
		length := a.DurationTotal
		if length == "" {
			length = "-"
		} else {
			known = append(known, a.DurationTotal)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			a.ID, a.Title, a.Artist.Join(", "), year, a.Genre.Join(", "), a.Format, len(a.Tracks), length)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	total, err := duration.Total(known)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d albums, %s total\n", len(albums), total)
	return nil
}

func renderAlbum(out io.Writer, a model.Album) error {
	fmt.Fprintf(out, "%s - %s", a.Artist.Join(", "), a.Title)
	if a.Year > 0 {
		fmt.Fprintf(out, " (%d)", a.Year)
	}
	fmt.Fprintln(out)
	if a.Label != "" {
		fmt.Fprintf(out, "Label:   %s\n", a.Label)
	}
	if len(a.Genre) > 0 {
		fmt.Fprintf(out, "Genre:   %s\n", a.Genre.Join(", "))
	}
	if a.Barcode != nil {
		fmt.Fprintf(out, "Barcode: %s\n", *a.Barcode)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDISC\tNO\tTITLE\tDURATION")
	for i, t := range a.Tracks {
		d := "-"
		if t.Duration != nil {
			d = *t.Duration
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", i, t.DiscNumber, t.TrackNumber, t.Title, d)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	total, err := duration.TotalOf(a.Durations())
	if err != nil {
		// 有未知时长时只显示服务端给出的总时长
		total = a.DurationTotal
	}
	if total != "" {
		fmt.Fprintf(out, "\nTotal: %s\n", total)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(albumsCmd)
	albumsCmd.AddCommand(albumShowCmd, albumCreateCmd, albumEditCmd, albumDeleteCmd, albumStreamCmd)

	for _, c := range []*cobra.Command{albumCreateCmd, albumEditCmd} {
		c.Flags().StringVarP(&albumFile, "file", "f", "", "专辑描述文件（.yaml/.json），- 表示标准输入")
		_ = c.MarkFlagRequired("file")
	}

	albumsCmd.Flags().StringVarP(&albumSearch, "search", "q", "", "按标题、艺术家或流派搜索")
	albumsCmd.Flags().StringVarP(&albumFilter, "filter", "f", "", "过滤条件，如 genre:rock、origin:japan、format:cd、release:single")
	albumsCmd.Flags().StringVarP(&albumSort, "sort", "s", "", "排序：year-asc、year-desc、alpha-asc、alpha-desc")

	albumsCmd.Example = `  # 按标题排序列出所有专辑
  cdstash albums -s alpha-asc

  # 搜索并过滤
  cdstash albums -q floyd -f genre:rock

  # 查看专辑曲目
  cdstash albums show <albumId>

  # 创建与修改专辑
  cdstash albums create -f blue.yaml
  cdstash albums edit <albumId> -f patch.json`
}

