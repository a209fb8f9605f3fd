package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"bfs-chain/api"
	"bfs-chain/bot"
	"bfs-chain/config"
	"bfs-chain/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log.Init(&cfg.Log)

	var notifier *bot.Notifier
	if cfg.Bot.Token != "" {
		if notifier, err = bot.New(&cfg.Bot); err != nil {
			zap.S().Warnf("Telegram notifications disabled: %v", err)
		}
	}

	simulator, err := NewSimulator(cfg, notifier)
	if err != nil {
		panic(err)
	}
	simulator.Start()

	apiSrv := api.New(simulator.Chain(), &cfg.Server)
	apiSrv.Start()

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cfg.Simulator.ReportSpec, simulator.Report); err != nil {
		zap.S().Warnf("Invalid report spec [%s]: %v", cfg.Simulator.ReportSpec, err)
	}
	c.Start()

	watchOSSignal(simulator, apiSrv, c)
}

func watchOSSignal(simulator *Simulator, apiSrv *api.Server, c *cron.Cron) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	<-c.Stop().Done()
	apiSrv.Stop()
	simulator.Stop()
}
