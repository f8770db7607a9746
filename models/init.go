/*
@Date: 2021/1/12 下午2:37
@Author: max.liu
@File : init
@Desc:
*/

package models

import (
	"context"
	"fmt"
	"regexp"

	"github.com/maxliu9403/common/apiserver/conf"
	"github.com/spf13/cobra"

	"github.com/maxliu9403/ProxyBoard/internal/config"
)

var AllTables = []interface{}{
	&Proxy{},
}

var dbNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// createDatabaseSQL 库名直接拼进 DDL，只允许字母数字下划线
func createDatabaseSQL(name string) (string, error) {
	if !dbNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid database name %q", name)
	}
	return fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci", name), nil
}

// NewCreateDatabaseCommand creates the database named in the config; tables
// are migrated from AllTables when the server starts.
func NewCreateDatabaseCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create_db",
		Short: "create database which project needed",
		RunE: func(*cobra.Command, []string) error {
			err := conf.LoadConfig(*configFile, config.G)
			if err != nil {
				return err
			}

			if config.G.MySQL.WriteDB == "" {
				return fmt.Errorf("no database, please check the config file or command flag")
			}

			ctx := context.Background()
			dbShouldCreate := config.G.MySQL.WriteDB
			dbSQL, err := createDatabaseSQL(dbShouldCreate)
			if err != nil {
				return err
			}

			// clear db name which config specified, otherwise build client will fail
			config.G.MySQL.WriteDB = ""
			config.G.MySQL.LogLevel = "silent"
			dbCli, err := config.G.MySQL.BuildMySQLClient(ctx)
			if err != nil {
				return err
			}

			db := dbCli.Master(ctx)
			if err = db.Exec(dbSQL).Error; err != nil {
				return fmt.Errorf("create database %s: %w", dbShouldCreate, err)
			}

			fmt.Printf("well done...\ndatabase %s create successfully or exists already\n", dbShouldCreate)
			return nil
		},
	}
}
