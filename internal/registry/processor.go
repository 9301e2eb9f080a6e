package registry

import (
	"fmt"

	"registry-program-sol/internal/runtime"
)

// LoadMode 决定调用开始时名单的来源
type LoadMode uint8

const (
	// LoadPersisted 从账户数据反序列化已有名单，修改后整体写回（名单跨调用累积）
	LoadPersisted LoadMode = iota
	// LoadEphemeral 每次调用从空名单开始（旧版链上行为），修改后整体写回
	LoadEphemeral
)

func (m LoadMode) String() string {
	switch m {
	case LoadPersisted:
		return "persisted"
	case LoadEphemeral:
		return "ephemeral"
	default:
		return "unknown"
	}
}

var _ runtime.Processor = (*Processor)(nil)

// Processor 名单注册程序
type Processor struct {
	policy DuplicatePolicy
	mode   LoadMode
}

type Option func(*Processor)

func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(p *Processor) { p.policy = policy }
}

func WithLoadMode(mode LoadMode) Option {
	return func(p *Processor) { p.mode = mode }
}

func NewProcessor(opts ...Option) *Processor {
	p := &Processor{policy: AllowDuplicates, mode: LoadPersisted}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process 执行一条名单指令。
//
// Accounts:
// #0 - 消费者名单账户（owner 必须为当前程序）
// #1 - 商店名单账户（owner 必须为当前程序）
// #2 - 目标账户（其地址即名单元素）
//
// 校验顺序：名单账户 → owner → opcode → 目标账户。任一步失败都不会修改账户数据。
func (p *Processor) Process(ic *runtime.InvokeContext, data []byte) error {
	it := ic.Iter()
	consumerAccount, err := it.Next()
	if err != nil {
		return err
	}
	storeAccount, err := it.Next()
	if err != nil {
		return err
	}

	if !consumerAccount.IsOwnedBy(ic.ProgramID) {
		return fmt.Errorf("%w: consumer list %s owned by %s", runtime.ErrOwnershipMismatch, consumerAccount.Key, consumerAccount.Owner)
	}
	if !storeAccount.IsOwnedBy(ic.ProgramID) {
		return fmt.Errorf("%w: store list %s owned by %s", runtime.ErrOwnershipMismatch, storeAccount.Key, storeAccount.Owner)
	}

	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}

	target, err := it.Next()
	if err != nil {
		return err
	}

	listAccount := [...]*runtime.AccountInfo{consumerAccount, storeAccount}[ix.List.slot()]
	list, err := p.load(listAccount)
	if err != nil {
		return err
	}

	switch ix.Action {
	case ActionCheck:
		if list.Contains(target.Key) {
			ic.Msg("%s exists", ix.List)
		} else {
			ic.Msg("%s does not exist", ix.List)
		}
		return nil

	case ActionAdd:
		list.Add(target.Key)

	case ActionRemove:
		list.Remove(target.Key)

	default:
		return fmt.Errorf("%w: unhandled action %s", runtime.ErrInvalidOpcode, ix.Action)
	}

	if !listAccount.IsWritable {
		return fmt.Errorf("%w: %s list %s is not writable", runtime.ErrInvalidAccount, ix.List, listAccount.Key)
	}
	// 先写到临时缓冲区，成功后再覆盖，保证失败时账户数据不变
	buf := make([]byte, len(listAccount.Data))
	if err := EncodeList(list, buf); err != nil {
		return err
	}
	copy(listAccount.Data, buf)
	return nil
}

func (p *Processor) load(acc *runtime.AccountInfo) (*MembershipList, error) {
	if p.mode == LoadEphemeral {
		return NewMembershipList(p.policy), nil
	}
	return DecodeList(acc.Data, p.policy)
}
