package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/AutoLotSync/AutoLotSync/internal/common/config"
	"github.com/AutoLotSync/AutoLotSync/internal/common/db"
	"github.com/AutoLotSync/AutoLotSync/internal/common/logger"
	"github.com/AutoLotSync/AutoLotSync/internal/common/tracing"
	"github.com/AutoLotSync/AutoLotSync/internal/inventory"
	"github.com/AutoLotSync/AutoLotSync/internal/posting"
	"github.com/AutoLotSync/AutoLotSync/internal/report"
	"github.com/AutoLotSync/AutoLotSync/internal/vehicle"
)

var (
	configPath = flag.String("config", "configs/autolotsync.json", "配置文件路径")
	fromConsul = flag.Bool("consul", false, "从 Consul KV 读取配置")
	tokensPath = flag.String("tokens", "", "报表坐标文本 JSON 文件（文档抽取组件的输出）")
	tsvPath    = flag.String("tsv", "", "制表符分隔的手工库存文本文件")
	tolerance  = flag.Float64("tolerance", report.DefaultLineTolerance, "行重建的垂直坐标容差（点）")
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
	_, closer, err := tracing.InitTracer(cfg.Server.Name+"-sync", cfg.Jaeger.Endpoint, cfg.Jaeger.Sampler)
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

	// 解析报表
	batch, err := loadBatch(log)
	if err != nil {
		log.Fatalf("failed to parse inventory: %v", err)
	}
	log.Infof("parsed %d vehicles", len(batch))

	// 对账入库
	syncer := inventory.NewSyncer(
		vehicle.NewRepo(gormDB),
		vehicle.NewDirPhotoStore(cfg.Photos.Dir),
		log,
	)
	sum, err := syncer.Sync(context.Background(), batch)
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}
	log.Infof("sync summary: added=%d updated=%d removed=%d skipped=%d total=%d",
		sum.Added, sum.Updated, sum.Removed, sum.Skipped, sum.Total)
}

// loadBatch 根据命令行参数选择导入通道：坐标文本 JSON 或手工 TSV。
func loadBatch(log logger.Logger) ([]report.ParsedVehicle, error) {
	switch {
	case *tokensPath != "":
		data, err := os.ReadFile(*tokensPath)
		if err != nil {
			return nil, err
		}
		var tokens []report.Token
		if err := json.Unmarshal(data, &tokens); err != nil {
			return nil, fmt.Errorf("bad tokens file: %w", err)
		}
		log.Infof("loaded %d text tokens from %s", len(tokens), *tokensPath)
		return report.ParseReport(tokens, *tolerance)
	case *tsvPath != "":
		data, err := os.ReadFile(*tsvPath)
		if err != nil {
			return nil, err
		}
		batch := report.ParseTabSeparated(string(data))
		if len(batch) == 0 {
			return nil, report.ErrNoVehicles
		}
		return batch, nil
	default:
		return nil, fmt.Errorf("either -tokens or -tsv is required")
	}
}
