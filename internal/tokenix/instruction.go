// Package tokenix 定义 Token 指令的定长线格式，以及字节缓冲区与强类型指令之间的转换。
//
// 布局（固定 41 字节，小端序）：
//
//	Tag 0 InitializeMint    [1:9] decimals（u64 容器，值 <= 255） [9:41] mint authority
//	Tag 1 InitializeAccount 无负载，补 0
//	Tag 2 MintTo            [1:9] amount（u64），其余补 0
package tokenix

import (
	"encoding/binary"
	"fmt"
	"math"

	"registry-program-sol/internal/runtime"
	"registry-program-sol/internal/types"
)

// Tag 指令判别字节
type Tag uint8

const (
	TagInitializeMint Tag = iota
	TagInitializeAccount
	TagMintTo
)

func (t Tag) String() string {
	switch t {
	case TagInitializeMint:
		return "InitializeMint"
	case TagInitializeAccount:
		return "InitializeAccount"
	case TagMintTo:
		return "MintTo"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

const (
	// InstructionLen 编码后的固定长度
	InstructionLen = 1 + 8 + types.PubkeyLen

	offsetTag       = 0
	offsetU64       = 1
	offsetAuthority = 9
)

// 各 tag 解码所需的最小长度
var requiredLen = map[Tag]int{
	TagInitializeMint:    InstructionLen,
	TagInitializeAccount: 1,
	TagMintTo:            offsetU64 + 8,
}

// TokenInstruction 封闭的指令类型：只有本包内的三个变体实现该接口
type TokenInstruction interface {
	Tag() Tag
	packInto(dst []byte)
}

// InitializeMint 初始化 mint：精度 + 铸币权限
type InitializeMint struct {
	Decimals      uint8
	MintAuthority types.Pubkey
}

func (InitializeMint) Tag() Tag { return TagInitializeMint }

func (ix InitializeMint) packInto(dst []byte) {
	binary.LittleEndian.PutUint64(dst[offsetU64:], uint64(ix.Decimals))
	copy(dst[offsetAuthority:], ix.MintAuthority[:])
}

// InitializeAccount 初始化 token 账户，无负载
type InitializeAccount struct{}

func (InitializeAccount) Tag() Tag { return TagInitializeAccount }

func (InitializeAccount) packInto([]byte) {}

// MintTo 铸造 Amount 个最小单位
type MintTo struct {
	Amount uint64
}

func (MintTo) Tag() Tag { return TagMintTo }

func (ix MintTo) packInto(dst []byte) {
	binary.LittleEndian.PutUint64(dst[offsetU64:], ix.Amount)
}

// Pack 将指令编码为固定 InstructionLen 字节
func Pack(ix TokenInstruction) []byte {
	dst := make([]byte, InstructionLen)
	dst[offsetTag] = byte(ix.Tag())
	ix.packInto(dst)
	return dst
}

// Unpack 解码指令缓冲区。
// 缓冲区短于 tag 所需长度时返回 ErrMalformedPayload，未知 tag 返回 ErrInvalidTag；不会越界 panic。
func Unpack(src []byte) (TokenInstruction, error) {
	if len(src) < 1 {
		return nil, fmt.Errorf("%w: empty instruction data", runtime.ErrMalformedPayload)
	}
	tag := Tag(src[offsetTag])
	need, ok := requiredLen[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %d", runtime.ErrInvalidTag, src[offsetTag])
	}
	if len(src) < need {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", runtime.ErrMalformedPayload, tag, need, len(src))
	}

	switch tag {
	case TagInitializeMint:
		decimals := binary.LittleEndian.Uint64(src[offsetU64:])
		if decimals > math.MaxUint8 {
			return nil, fmt.Errorf("%w: decimals %d out of range", runtime.ErrMalformedPayload, decimals)
		}
		ix := InitializeMint{Decimals: uint8(decimals)}
		copy(ix.MintAuthority[:], src[offsetAuthority:offsetAuthority+types.PubkeyLen])
		return ix, nil

	case TagInitializeAccount:
		return InitializeAccount{}, nil

	case TagMintTo:
		return MintTo{Amount: binary.LittleEndian.Uint64(src[offsetU64:])}, nil

	default:
		return nil, fmt.Errorf("%w: %d", runtime.ErrInvalidTag, src[offsetTag])
	}
}
