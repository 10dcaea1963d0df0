package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "revu_server",
	Short: "Revu media-review backend: private chat, presence and media rooms",
	// 不带子命令时直接启动服务
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径，留空时按默认路径查找")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}
