package runtime

import (
	"fmt"

	sdktypes "github.com/blocto/solana-go-sdk/types"

	"registry-program-sol/internal/types"
)

// InvokeContext 一次调用的上下文：当前执行的程序、账户句柄与程序日志
type InvokeContext struct {
	ProgramID types.Pubkey
	Accounts  []*AccountInfo
	logs      []string
}

func NewInvokeContext(programID types.Pubkey, accounts []*AccountInfo) *InvokeContext {
	return &InvokeContext{ProgramID: programID, Accounts: accounts}
}

// Msg 记录一行程序日志（等价于链上 msg!），作为调用的可观察副作用
func (c *InvokeContext) Msg(format string, args ...any) {
	c.logs = append(c.logs, fmt.Sprintf(format, args...))
}

// Logs 返回本次调用记录的全部程序日志
func (c *InvokeContext) Logs() []string {
	return c.logs
}

// Iter 从头开始消费账户
func (c *InvokeContext) Iter() *AccountIter {
	return NewAccountIter(c.Accounts)
}

// Processor 程序入口：校验账户、解码指令并执行状态转换
type Processor interface {
	Process(ic *InvokeContext, data []byte) error
}

// ProcessorFunc 允许普通函数作为 Processor
type ProcessorFunc func(ic *InvokeContext, data []byte) error

func (f ProcessorFunc) Process(ic *InvokeContext, data []byte) error {
	return f(ic, data)
}

// Invoker 跨程序调用（CPI）边界：把构造好的指令交给目标程序执行
type Invoker interface {
	Invoke(ic *InvokeContext, ix sdktypes.Instruction, accounts []*AccountInfo) error
}
