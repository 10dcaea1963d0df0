package main

import (
	"fmt"

	"github.com/NanduBolleddu/Revu/internal/config"
	dao "github.com/NanduBolleddu/Revu/internal/dao/mysql"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the chat tables (mysql driver only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.LoadConfig(configPath)
		if err != nil && conf == nil {
			return err
		}
		if conf.StoreConfig.Driver != "mysql" {
			return fmt.Errorf("migrate only applies to the mysql driver, got %q", conf.StoreConfig.Driver)
		}
		db, err := dao.Open(&conf.MysqlConfig)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := dao.Migrate(db); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrate ok")
		return nil
	},
}
