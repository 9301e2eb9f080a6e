package scenario

import (
	"context"
	"fmt"

	"registry-program-sol/internal/ledger"
	"registry-program-sol/pkg/logger"
)

// StepResult 单步回放结果
type StepResult struct {
	Step    PlannedStep
	Outcome *ledger.Outcome
}

// Matched 结果码是否符合期望
func (r StepResult) Matched() bool {
	return r.Outcome != nil && r.Outcome.Code == r.Step.ExpectCode
}

// Replay 写入预置账户后按顺序执行全部调用。
// 程序失败不会中断回放；存储故障立即返回。
func Replay(ctx context.Context, l *ledger.Ledger, plan *Plan) ([]StepResult, error) {
	if err := l.Store().Save(ctx, plan.Records); err != nil {
		return nil, fmt.Errorf("seed scenario accounts: %w", err)
	}

	results := make([]StepResult, 0, len(plan.Steps))
	for _, st := range plan.Steps {
		out, err := l.Execute(ctx, st.Invocation)
		if err != nil {
			return results, fmt.Errorf("%s: %w", st.Name, err)
		}
		res := StepResult{Step: st, Outcome: out}
		if !res.Matched() {
			logger.Warnf("[Scenario] %s: code=%d, expect=%d, err=%v", st.Name, out.Code, st.ExpectCode, out.Err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Mismatches 统计不符合期望的步骤数
func Mismatches(results []StepResult) int {
	n := 0
	for _, r := range results {
		if !r.Matched() {
			n++
		}
	}
	return n
}
