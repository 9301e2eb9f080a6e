package registry

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/types"
)

// ListKind 指令作用的名单，同时决定绑定的账户槽位
type ListKind uint8

const (
	ConsumerList ListKind = iota // 账户槽位 #0
	StoreList                    // 账户槽位 #1
)

func (k ListKind) String() string {
	switch k {
	case ConsumerList:
		return "Consumer"
	case StoreList:
		return "Store"
	default:
		return fmt.Sprintf("ListKind(%d)", uint8(k))
	}
}

// slot 名单账户在账户列表中的位置
func (k ListKind) slot() int {
	return int(k)
}

// Action 对名单的操作
type Action uint8

const (
	ActionAdd Action = iota
	ActionRemove
	ActionCheck
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "Add"
	case ActionRemove:
		return "Remove"
	case ActionCheck:
		return "Check"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// Instruction 解码后的名单指令，只能通过 DecodeInstruction 或下列变量获得
type Instruction struct {
	Action Action
	List   ListKind
}

func (ix Instruction) String() string {
	return ix.Action.String() + ix.List.String()
}

// 名单指令，下标即 opcode
var (
	AddConsumer    = Instruction{ActionAdd, ConsumerList}
	RemoveConsumer = Instruction{ActionRemove, ConsumerList}
	CheckConsumer  = Instruction{ActionCheck, ConsumerList}
	AddStore       = Instruction{ActionAdd, StoreList}
	RemoveStore    = Instruction{ActionRemove, StoreList}

	opcodeTable = [...]Instruction{
		0: AddConsumer,
		1: RemoveConsumer,
		2: CheckConsumer,
		3: AddStore,
		4: RemoveStore,
	}
)

// DecodeInstruction 解析指令首字节。空数据为 ErrMalformedPayload，未知 opcode 为 ErrInvalidOpcode。
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) < 1 {
		return Instruction{}, fmt.Errorf("%w: empty instruction data", runtime.ErrMalformedPayload)
	}
	op := data[0]
	if int(op) >= len(opcodeTable) {
		return Instruction{}, fmt.Errorf("%w: %d", runtime.ErrInvalidOpcode, op)
	}
	return opcodeTable[op], nil
}

// Opcode 返回指令对应的 opcode
func (ix Instruction) Opcode() (byte, error) {
	for op, known := range opcodeTable {
		if known == ix {
			return byte(op), nil
		}
	}
	return 0, fmt.Errorf("%w: %s has no opcode", runtime.ErrInvalidOpcode, ix)
}

// NewInstruction 构造提交给名单程序的 SDK 指令。
//
// Accounts:
// #0 - 消费者名单账户（可写）
// #1 - 商店名单账户（可写）
// #2 - 目标账户（只读）
func NewInstruction(programID, consumerList, storeList, target types.Pubkey, ix Instruction) (sdktypes.Instruction, error) {
	op, err := ix.Opcode()
	if err != nil {
		return sdktypes.Instruction{}, err
	}
	return sdktypes.Instruction{
		ProgramID: programID.ToCommon(),
		Accounts: []sdktypes.AccountMeta{
			{PubKey: consumerList.ToCommon(), IsSigner: false, IsWritable: true},
			{PubKey: storeList.ToCommon(), IsSigner: false, IsWritable: true},
			{PubKey: target.ToCommon(), IsSigner: false, IsWritable: false},
		},
		Data: []byte{op},
	}, nil
}
