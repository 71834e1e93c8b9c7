package cmd

import (
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 cd-stash 服务器",
	Long:  `启动 cd-stash 的 HTTP 服务器，提供专辑、曲目与播放列表的 REST API`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
