/*
@Date: 2021/1/12 下午2:23
@Author: max.liu
@File : run
@Desc:
*/

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/maxliu9403/common/apiserver"
	"github.com/maxliu9403/common/apiserver/conf"
	"github.com/maxliu9403/common/gormdb"
	"github.com/maxliu9403/common/kafka"
	"github.com/maxliu9403/common/logger"
	"github.com/maxliu9403/common/version"
	"github.com/spf13/cobra"

	"github.com/maxliu9403/ProxyBoard/internal/common"
	"github.com/maxliu9403/ProxyBoard/internal/config"
	"github.com/maxliu9403/ProxyBoard/internal/consumer"
	"github.com/maxliu9403/ProxyBoard/internal/cron"
	"github.com/maxliu9403/ProxyBoard/internal/handler"
	"github.com/maxliu9403/ProxyBoard/internal/logic/proxy"
	"github.com/maxliu9403/ProxyBoard/internal/pkg/mailer"
	"github.com/maxliu9403/ProxyBoard/internal/producer"
	"github.com/maxliu9403/ProxyBoard/models"
	"github.com/maxliu9403/ProxyBoard/models/factory"
	"github.com/maxliu9403/ProxyBoard/models/repo"
)

const projectName = "ProxyBoard"

var (
	configFile string
	rootCmd    = &cobra.Command{
		Short: projectName,
		RunE: func(*cobra.Command, []string) error {
			return run()
		},
	}

	versionCommand = version.NewVerCommand(projectName)
	envCommand     = apiserver.NewConfigEnvCommand(config.G)
	initDB         = models.NewCreateDatabaseCommand(&configFile)
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/dev.yaml", "configuration file path")
	rootCmd.AddCommand(versionCommand, envCommand, initDB, newCheckCommand())
}

func serviceOptions() proxy.Options {
	t := config.G.Tester
	return proxy.Options{
		BatchSize:    t.BatchSize,
		ItemTimeout:  t.ItemTimeout(),
		RetryFailed:  t.RetryFailed,
		RetryCount:   t.RetryCount,
		LeaderboardK: config.G.CustomCfg.LeaderboardK,
		MaxKeptOps:   config.G.CustomCfg.MaxOperations,
		StrictIPv4:   t.StrictIPv4,
	}
}

func run() (err error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = conf.LoadConfig(configFile, config.G)
	if err != nil {
		return fmt.Errorf("config file init failed: %s", err.Error())
	}

	// 数据表迁移，新增表时修改 AllTables
	m := apiserver.Migration(models.AllTables)
	server := apiserver.CreateNewServer(ctx, config.G.APIConfig, m)
	defer server.Stop()

	logger.Debugf("%+v", config.G)

	test, closeTester, err := settingsFromConfig(config.G.Tester, config.G.CustomCfg.GeoIPPath).testFunc()
	if err != nil {
		return err
	}
	defer closeTester()

	var (
		initial   []models.ProxyRecord
		options   []proxy.Option
		persister *proxy.Persister
	)
	if config.G.CustomCfg.Persist {
		newRepo := func() repo.ProxyRepo { return factory.ProxyRepo(gormdb.Cli(ctx)) }
		if initial, err = proxy.LoadRecords(newRepo()); err != nil {
			return fmt.Errorf("load proxies failed: %w", err)
		}
		persister = proxy.NewPersister(newRepo)
		options = append(options, proxy.WithListener(persister.Listener()))
	}

	if config.G.CustomCfg.KafkaEnabled {
		producer.NewProducer(config.G.Kafka)
		options = append(options, proxy.WithResultSink(producer.ResultSink))
	}

	if mc := config.G.Mail; mc.Enabled {
		options = append(options, proxy.WithRunReporter(mailer.Reporter(mailer.MailConfig{
			Host:     mc.Host,
			Port:     mc.Port,
			Username: mc.Username,
			Password: mc.Password,
			SendTo:   mc.SendTo,
		})))
	}

	svc, err := proxy.NewService(initial, test, serviceOptions(), options...)
	if err != nil {
		return err
	}
	defer func() {
		svc.Close()
		if persister != nil {
			closeCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			persister.Close(closeCtx)
		}
	}()
	logger.Info(fmt.Sprintf("%d proxies loaded", len(initial)))

	if config.G.CustomCfg.KafkaEnabled {
		c, err := kafka.Default().NewConsumer()
		if err != nil {
			return fmt.Errorf("new kafka consumer failed: %w", err)
		}
		if err = consumer.RunConsume(c, svc); err != nil {
			return err
		}
	}

	group := server.AddGinGroup("")
	tra := server.GetTracer()
	handler.RegisterRouter(tra, group, svc)

	if err = cron.RegisterCronJobs(ctx, svc); err != nil {
		return err
	}

	// 初始化 validator 翻译器
	locale := config.G.CustomCfg.Locale
	if locale == "" {
		locale = "zh"
	}
	if err = common.InitTrans(locale); err != nil {
		return fmt.Errorf("init trans failed, err: %v", err)
	}

	server.Start()
	return err
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
