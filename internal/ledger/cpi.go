package ledger

import (
	"fmt"
	"sync"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"registry-program-sol/internal/logic/cpiparser"
	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/types"
)

// CPIRecord 一条被记录的跨程序调用
type CPIRecord struct {
	Caller    types.Pubkey
	ProgramID types.Pubkey
	Accounts  []types.Pubkey
	Data      []byte
	TokenCall *cpiparser.TokenCall // SPL Token 调用的解析结果，其他程序为 nil
}

// CPIRouter 实现 runtime.Invoker：
// 目标程序已在账本注册时直接在同一组账户句柄上执行，否则只记录指令（外部程序不在本地实现）。
type CPIRouter struct {
	ledger *Ledger

	mu       sync.Mutex
	recorded []CPIRecord
}

var _ runtime.Invoker = (*CPIRouter)(nil)

// CPI 返回绑定当前账本的 CPIRouter
func (l *Ledger) CPI() *CPIRouter {
	return &CPIRouter{ledger: l}
}

func (r *CPIRouter) Invoke(ic *runtime.InvokeContext, ix sdktypes.Instruction, accounts []*runtime.AccountInfo) error {
	programID := types.PubkeyFromCommon(ix.ProgramID)

	byKey := make(map[types.Pubkey]*runtime.AccountInfo, len(accounts))
	for _, a := range accounts {
		byKey[a.Key] = a
	}

	sub := make([]*runtime.AccountInfo, len(ix.Accounts))
	keys := make([]types.Pubkey, len(ix.Accounts))
	for i, m := range ix.Accounts {
		key := types.PubkeyFromCommon(m.PubKey)
		h, ok := byKey[key]
		if !ok {
			return fmt.Errorf("%w: %s missing from cpi accounts", runtime.ErrInvalidAccount, key)
		}
		// 权限不能在 CPI 中提升
		if m.IsWritable && !h.IsWritable {
			return fmt.Errorf("%w: %s writable privilege escalated", runtime.ErrInvalidAccount, key)
		}
		if m.IsSigner && !h.IsSigner {
			return fmt.Errorf("%w: %s signer privilege escalated", runtime.ErrInvalidAccount, key)
		}
		sub[i] = h
		keys[i] = key
	}

	call, parsed := cpiparser.ParseTokenCall(programID, keys, ix.Data)
	if parsed {
		ic.Msg("Program %s invoke: %s", programID, call)
	} else {
		ic.Msg("Program %s invoke", programID)
	}

	if p, ok := r.ledger.lookup(programID); ok {
		subCtx := runtime.NewInvokeContext(programID, sub)
		err := runProcessor(p, subCtx, ix.Data)
		for _, line := range subCtx.Logs() {
			ic.Msg("%s", line)
		}
		if err != nil {
			ic.Msg("Program %s failed: %v", programID, err)
			return err
		}
		ic.Msg("Program %s success", programID)
		return nil
	}

	r.mu.Lock()
	r.recorded = append(r.recorded, CPIRecord{
		Caller:    ic.ProgramID,
		ProgramID: programID,
		Accounts:  keys,
		Data:      append([]byte(nil), ix.Data...),
		TokenCall: call,
	})
	r.mu.Unlock()
	return nil
}

// Recorded 返回已记录的外部调用
func (r *CPIRouter) Recorded() []CPIRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CPIRecord, len(r.recorded))
	copy(out, r.recorded)
	return out
}
