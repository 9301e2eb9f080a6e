package runtime

import (
	"fmt"

	"registry-program-sol/internal/types"
)

// AccountInfo 运行时提供的账户句柄：地址、owner 以及可变的持久化数据。
// Data 为本次调用的工作副本，调用成功后由运行时整体写回。
type AccountInfo struct {
	Key        types.Pubkey // 账户地址
	Owner      types.Pubkey // 控制该账户存储的程序
	Lamports   uint64
	Data       []byte
	IsSigner   bool
	IsWritable bool
	Executable bool
}

// IsOwnedBy 判断账户是否归属指定程序
func (a *AccountInfo) IsOwnedBy(programID types.Pubkey) bool {
	return a.Owner == programID
}

// Clone 深拷贝账户（包括数据缓冲区）
func (a *AccountInfo) Clone() *AccountInfo {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

// AccountIter 按顺序消费账户句柄，越界时返回 ErrAccountExhausted
type AccountIter struct {
	accounts []*AccountInfo
	next     int
}

func NewAccountIter(accounts []*AccountInfo) *AccountIter {
	return &AccountIter{accounts: accounts}
}

// Next 返回下一个账户句柄
func (it *AccountIter) Next() (*AccountInfo, error) {
	if it.next >= len(it.accounts) {
		return nil, fmt.Errorf("%w: requested #%d, supplied %d", ErrAccountExhausted, it.next, len(it.accounts))
	}
	acc := it.accounts[it.next]
	it.next++
	return acc, nil
}

// Remaining 尚未消费的账户数量
func (it *AccountIter) Remaining() int {
	return len(it.accounts) - it.next
}
