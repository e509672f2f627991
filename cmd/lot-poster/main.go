package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AutoLotSync/AutoLotSync/internal/common/config"
	"github.com/AutoLotSync/AutoLotSync/internal/common/db"
	"github.com/AutoLotSync/AutoLotSync/internal/common/logger"
	"github.com/AutoLotSync/AutoLotSync/internal/common/tracing"
	"github.com/AutoLotSync/AutoLotSync/internal/posting"
	"github.com/AutoLotSync/AutoLotSync/internal/publisher"
	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

var (
	configPath = flag.String("config", "configs/autolotsync.json", "配置文件路径")
	fromConsul = flag.Bool("consul", false, "从 Consul KV 读取配置")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	if *fromConsul {
		cfg, err = config.LoadConfigFromConsulKV(cfg.Consul.Host, cfg.Consul.Port, "")
		if err != nil {
			panic(fmt.Sprintf("failed to load config from consul: %v", err))
		}
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	_, closer, err := tracing.InitTracer(cfg.Server.Name+"-poster", cfg.Jaeger.Endpoint, cfg.Jaeger.Sampler)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(&vehicle.Vehicle{}, &posting.DailyPostCount{}, &posting.AuditEntry{}); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	scheduler := posting.NewScheduler(
		vehicle.NewRepo(gormDB),
		posting.NewCounterRepo(gormDB),
		posting.NewAuditRepo(gormDB),
		publisher.NewAgentClient(cfg.Posting.AgentURL),
		posting.SchedulerConfig{
			MaxPerDay:  cfg.Posting.MaxPerDay,
			MinDelay:   time.Duration(cfg.Posting.MinDelayMinutes) * time.Minute,
			MaxDelay:   time.Duration(cfg.Posting.MaxDelayMinutes) * time.Minute,
			StaleAfter: time.Duration(cfg.Posting.StaleAfterMinute) * time.Minute,
		},
		log,
	)

	// Ctrl+C 触发协作式停止：当前这台发完再退出
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("stop requested, finishing current vehicle...")
		scheduler.RequestStop()
		<-sigCh
		// 第二次信号直接取消
		cancel()
	}()

	sum, err := scheduler.Run(ctx)
	if err != nil {
		log.Fatalf("poster run failed: %v", err)
	}
	log.Infof("poster done: stopped=%v attempted=%d succeeded=%d failed=%d remaining=%d daily=%d/%d",
		sum.Stopped, sum.Attempted, sum.Succeeded, sum.Failed, sum.Remaining,
		sum.DailyCount, cfg.Posting.MaxPerDay)
}
