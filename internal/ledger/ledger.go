package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/types"
	"registry-program-sol/pkg/logger"
)

var ErrProgramNotFound = errors.New("program not registered in ledger")

// errReadonlyModified 程序修改了未声明为可写的账户
var errReadonlyModified = fmt.Errorf("%w: readonly account modified", runtime.ErrInvalidAccount)

// AccountMeta 调用声明的账户及其权限
type AccountMeta struct {
	Key        types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Invocation 一次顶层调用
type Invocation struct {
	ProgramID types.Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// InvocationFromInstruction 将 SDK 指令转换为账本调用
func InvocationFromInstruction(ix sdktypes.Instruction) Invocation {
	inv := Invocation{
		ProgramID: types.PubkeyFromCommon(ix.ProgramID),
		Accounts:  make([]AccountMeta, len(ix.Accounts)),
		Data:      ix.Data,
	}
	for i, m := range ix.Accounts {
		inv.Accounts[i] = AccountMeta{
			Key:        types.PubkeyFromCommon(m.PubKey),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		}
	}
	return inv
}

// Outcome 调用结果。程序失败体现在 Err/Code 上，此时没有任何账户被写回。
type Outcome struct {
	ProgramID types.Pubkey
	Code      uint32
	Err       error
	Logs      []string
	Changed   []types.Pubkey
	Duration  time.Duration
}

func (o *Outcome) Success() bool {
	return o.Err == nil
}

// Ledger 本地账本：加载账户、执行已注册程序，成功时原子写回被修改的可写账户。
// 调用串行执行。
type Ledger struct {
	store Store

	execMu sync.Mutex

	programsMu sync.RWMutex
	programs   map[types.Pubkey]runtime.Processor
}

func New(store Store) *Ledger {
	return &Ledger{
		store:    store,
		programs: make(map[types.Pubkey]runtime.Processor),
	}
}

// Register 注册程序，重复注册覆盖旧值
func (l *Ledger) Register(programID types.Pubkey, p runtime.Processor) {
	l.programsMu.Lock()
	defer l.programsMu.Unlock()
	l.programs[programID] = p
}

func (l *Ledger) lookup(programID types.Pubkey) (runtime.Processor, bool) {
	l.programsMu.RLock()
	defer l.programsMu.RUnlock()
	p, ok := l.programs[programID]
	return p, ok
}

// Store 返回底层存储
func (l *Ledger) Store() Store {
	return l.store
}

// Execute 执行一次调用。返回的 error 仅表示存储层故障或程序未注册。
func (l *Ledger) Execute(ctx context.Context, inv Invocation) (*Outcome, error) {
	processor, ok := l.lookup(inv.ProgramID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, inv.ProgramID)
	}

	l.execMu.Lock()
	defer l.execMu.Unlock()

	start := time.Now()

	// 同一地址在调用中共享同一个句柄，权限取并集
	keys, handles, err := l.loadAccounts(ctx, inv.Accounts)
	if err != nil {
		return nil, err
	}
	originals := make(map[types.Pubkey]*Record, len(keys))
	for _, k := range keys {
		originals[k] = recordFromAccountInfo(handles[k])
	}

	accounts := make([]*runtime.AccountInfo, len(inv.Accounts))
	for i, m := range inv.Accounts {
		accounts[i] = handles[m.Key]
	}

	ic := runtime.NewInvokeContext(inv.ProgramID, accounts)
	runErr := runProcessor(processor, ic, inv.Data)

	var changed []*Record
	if runErr == nil {
		for _, k := range keys {
			h := handles[k]
			cur := recordFromAccountInfo(h)
			if cur.equalState(originals[k]) {
				continue
			}
			if !h.IsWritable {
				runErr = fmt.Errorf("%w: %s", errReadonlyModified, k)
				changed = nil
				break
			}
			changed = append(changed, cur)
		}
	}

	outcome := &Outcome{
		ProgramID: inv.ProgramID,
		Code:      runtime.ErrorCode(runErr),
		Err:       runErr,
		Logs:      ic.Logs(),
	}
	for _, line := range outcome.Logs {
		logger.Debugf("[Ledger] program %s: %s", inv.ProgramID, line)
	}

	if runErr == nil && len(changed) > 0 {
		if err := l.store.Save(ctx, changed); err != nil {
			return nil, fmt.Errorf("commit invocation of %s: %w", inv.ProgramID, err)
		}
		for _, r := range changed {
			outcome.Changed = append(outcome.Changed, r.Key)
		}
	}
	outcome.Duration = time.Since(start)

	if runErr != nil {
		logger.Warnf("[Ledger] program %s failed, code=%d: %v", inv.ProgramID, outcome.Code, runErr)
	} else {
		logger.Infof("[Ledger] program %s ok, changed=%d, cost=%s", inv.ProgramID, len(outcome.Changed), outcome.Duration)
	}
	return outcome, nil
}

func (l *Ledger) loadAccounts(ctx context.Context, metas []AccountMeta) ([]types.Pubkey, map[types.Pubkey]*runtime.AccountInfo, error) {
	var keys []types.Pubkey
	flags := make(map[types.Pubkey]AccountMeta, len(metas))
	for _, m := range metas {
		f, seen := flags[m.Key]
		if !seen {
			keys = append(keys, m.Key)
			f.Key = m.Key
		}
		f.IsSigner = f.IsSigner || m.IsSigner
		f.IsWritable = f.IsWritable || m.IsWritable
		flags[m.Key] = f
	}

	records, err := l.store.Load(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("load accounts: %w", err)
	}

	handles := make(map[types.Pubkey]*runtime.AccountInfo, len(keys))
	for i, k := range keys {
		r := records[i]
		if r == nil {
			r = emptyRecord(k)
		}
		f := flags[k]
		handles[k] = r.toAccountInfo(f.IsSigner, f.IsWritable)
	}
	return keys, handles, nil
}

// runProcessor 程序 panic 视为调用失败
func runProcessor(p runtime.Processor, ic *runtime.InvokeContext, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("program %s panicked: %v", ic.ProgramID, r)
		}
	}()
	return p.Process(ic, data)
}
