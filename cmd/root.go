package cmd

import (
	"fmt"
	"os"

	"cdstash/config"
	"cdstash/logger"
	"cdstash/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cdstash",
	Short: "cd-stash is a personal CD library.",
	Long: `cd-stash 管理个人 CD 收藏：专辑、曲目与播放列表。
不带子命令运行时启动 HTTP 服务器。`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

// Execute executes the root command.
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup 加载配置并初始化日志；stdout 为 false 时日志只写文件
func setup(stdout bool) *config.Config {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   true,
		Stdout:     stdout,
	})
	return cfg
}

func runServer() error {
	cfg := setup(true)
	logger.Info("Starting cd-stash server...",
		logger.String("addr", cfg.HTTPAddr),
		logger.String("store", cfg.StoreDriver))
	return server.Start(cfg)
}
