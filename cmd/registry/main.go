package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	"registry-program-sol/internal/config"
	"registry-program-sol/internal/ledger"
	"registry-program-sol/internal/registry"
	"registry-program-sol/internal/scenario"
	"registry-program-sol/internal/svc"
	"registry-program-sol/internal/types"
	"registry-program-sol/pkg/logger"
)

var (
	configFile   = flag.String("f", "etc/registry.yaml", "the config file")
	scenarioFile = flag.String("s", "etc/scenario.yaml", "the scenario file")
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			os.Exit(2)
		}
	}()

	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		logx.Errorf("logger init failed: %v", err)
		os.Exit(1)
	}

	code := run(c, *scenarioFile)
	logger.Sync()
	os.Exit(code)
}

func run(c config.Config, scenarioPath string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		logger.Errorf("服务上下文初始化失败: %v", err)
		return 1
	}
	defer serviceContext.Close()

	if serviceContext.Seeder != nil {
		n, err := serviceContext.Seeder.SeedWithRetry(ctx, 3, 2*time.Second)
		if err != nil {
			logger.Errorf("RPC 账户拉取失败: %v", err)
			return 1
		}
		logger.Infof("RPC 账户拉取完成: %d", n)
	}

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		logger.Errorf("加载场景失败: %v", err)
		return 1
	}
	plan, err := sc.Resolve(scenario.Programs{
		Registry: serviceContext.RegistryProgram,
		Token:    serviceContext.TokenProgram,
		SPLToken: serviceContext.SPLTokenProgram,
	})
	if err != nil {
		logger.Errorf("解析场景失败: %v", err)
		return 1
	}

	results, err := scenario.Replay(ctx, serviceContext.Ledger, plan)
	if err != nil {
		logger.Errorf("回放中断: %v", err)
		return 1
	}

	if serviceContext.Publisher != nil {
		outcomes := make([]*ledger.Outcome, len(results))
		for i, r := range results {
			outcomes[i] = r.Outcome
		}
		if err := serviceContext.Publisher.Publish(ctx, outcomes); err != nil {
			logger.Errorf("结果发布失败: %v", err)
			return 1
		}
	}

	printSummary(ctx, serviceContext, plan, results)
	if n := scenario.Mismatches(results); n > 0 {
		logger.Warnf("%d 个步骤结果不符合期望", n)
		return 3
	}
	return 0
}

// printSummary 输出每一步的结果与名单账户的最终内容
func printSummary(ctx context.Context, s *svc.ServiceContext, plan *scenario.Plan, results []scenario.StepResult) {
	name := func(k types.Pubkey) string {
		if n, ok := plan.Names[k]; ok {
			return n
		}
		return k.String()
	}

	for _, r := range results {
		status := "ok"
		if !r.Matched() {
			status = "MISMATCH"
		}
		fmt.Printf("%-32s code=%-3d %-8s %v\n", r.Step.Name, r.Outcome.Code, status, r.Outcome.Logs)
	}

	var lists []types.Pubkey
	for _, rec := range plan.Records {
		if rec.Owner == s.RegistryProgram {
			lists = append(lists, rec.Key)
		}
	}
	records, err := s.Store.Load(ctx, lists)
	if err != nil {
		logger.Errorf("读取名单账户失败: %v", err)
		return
	}
	for i, rec := range records {
		if rec == nil {
			continue
		}
		list, err := registry.DecodeList(rec.Data, registry.AllowDuplicates)
		if err != nil {
			fmt.Printf("list %s: %v\n", name(lists[i]), err)
			continue
		}
		members := make([]string, 0, list.Len())
		for _, m := range list.Members() {
			members = append(members, name(m))
		}
		fmt.Printf("list %s: %v\n", name(lists[i]), members)
	}
}
