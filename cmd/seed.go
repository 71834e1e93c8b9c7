package cmd

import (
	"context"
	"fmt"
	"os"

	"cdstash/core/library"
	"cdstash/server"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	seedFile  string
	seedForce bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "写入种子专辑",
	Long:  `专辑库为空时写入内置的经典专辑目录，也可以用 --file 指定 YAML 目录。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(false)
		if err := cfg.Validate(); err != nil {
			return err
		}

		data := library.DefaultSeed
		if seedFile != "" {
			raw, err := os.ReadFile(seedFile)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", seedFile)
			}
			data = raw
		}

		ctx := context.Background()
		backend, err := server.OpenBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer backend.Close()

		res, err := backend.Service.Seed(ctx, data, seedForce)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Printf("库中已有 %d 张专辑，跳过（使用 --force 强制写入）\n", res.Existing)
			return nil
		}
		fmt.Printf("已写入 %d 张专辑，%d 首曲目\n", res.Albums, res.Tracks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML 种子目录文件，默认使用内置目录")
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "库不为空时也写入")

	seedCmd.Example = `  # 写入内置目录
  cdstash seed

  # 使用自定义目录，即使库不为空
  cdstash seed -f catalog.yaml --force`
}
