package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"cdstash/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioStats     bool
	minioRecursive bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO音频存储桶浏览",
	Long:  `查看音频存储桶中的文件，支持按前缀过滤、递归列出和统计信息。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(false)
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		client, err := storage.NewMinioClient(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		objects, stats, err := storage.NewBucketBrowser(client, cfg.MinioBucket).List(ctx, minioPrefix, minioRecursive)
		if err != nil {
			return err
		}

		if !minioStats {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tKIND\tMODIFIED")
			for _, o := range objects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					o.Key, humanize.Bytes(uint64(o.Size)), o.Kind(), humanize.Time(o.LastModified))
			}
			w.Flush()
		}

		fmt.Printf("\n共 %s 个对象，总大小 %s", humanize.Comma(stats.TotalObjects), humanize.Bytes(uint64(stats.TotalSize)))
		if !stats.LastModified.IsZero() {
			fmt.Printf("，最近修改 %s", humanize.Time(stats.LastModified))
		}
		fmt.Println()
		if minioStats {
			kinds := make([]string, 0, len(stats.ByKind))
			for k := range stats.ByKind {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				fmt.Printf("  %-6s %s\n", k, humanize.Comma(stats.ByKind[k]))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	// 添加命令行参数
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示存储桶统计信息")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", false, "递归列出子目录")

	// 添加使用说明
	minioCmd.Example = `  # 列出存储桶根目录
  cdstash minio

  # 递归列出某个前缀下的音频
  cdstash minio -r -p "nevermind-"

  # 显示存储桶统计信息
  cdstash minio -s -r`
}
