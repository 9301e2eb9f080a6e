package ledger

import (
	"bytes"
	"fmt"

	"github.com/near/borsh-go"

	"registry-program-sol/internal/consts"
	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/types"
)

// Record 账本中持久化的账户
type Record struct {
	Key        types.Pubkey
	Owner      types.Pubkey
	Lamports   uint64
	Executable bool
	Data       []byte
}

// recordLayout 存储格式（borsh），key 由存储层单独保存
type recordLayout struct {
	Owner      types.Pubkey
	Lamports   uint64
	Executable bool
	Data       []byte
}

// emptyRecord 不存在的账户视为 System Program 持有的空账户
func emptyRecord(key types.Pubkey) *Record {
	return &Record{Key: key, Owner: consts.SystemProgram}
}

func (r *Record) Clone() *Record {
	c := *r
	c.Data = bytes.Clone(r.Data)
	return &c
}

func (r *Record) equalState(o *Record) bool {
	return r.Owner == o.Owner &&
		r.Lamports == o.Lamports &&
		r.Executable == o.Executable &&
		bytes.Equal(r.Data, o.Data)
}

func (r *Record) toAccountInfo(signer, writable bool) *runtime.AccountInfo {
	return &runtime.AccountInfo{
		Key:        r.Key,
		Owner:      r.Owner,
		Lamports:   r.Lamports,
		Data:       bytes.Clone(r.Data),
		IsSigner:   signer,
		IsWritable: writable,
		Executable: r.Executable,
	}
}

func recordFromAccountInfo(a *runtime.AccountInfo) *Record {
	return &Record{
		Key:        a.Key,
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Executable: a.Executable,
		Data:       bytes.Clone(a.Data),
	}
}

func encodeRecord(r *Record) ([]byte, error) {
	return borsh.Serialize(recordLayout{
		Owner:      r.Owner,
		Lamports:   r.Lamports,
		Executable: r.Executable,
		Data:       r.Data,
	})
}

func decodeRecord(key types.Pubkey, raw []byte) (*Record, error) {
	var l recordLayout
	if err := borsh.Deserialize(&l, raw); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", key, err)
	}
	return &Record{
		Key:        key,
		Owner:      l.Owner,
		Lamports:   l.Lamports,
		Executable: l.Executable,
		Data:       l.Data,
	}, nil
}
