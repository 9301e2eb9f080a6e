package runtime

import (
	"errors"
	"fmt"
)

// 调用失败分类。所有错误均立即返回、不可重试，运行时在任一错误上回滚整次调用。
var (
	ErrOwnershipMismatch   = errors.New("account owner does not match program id")
	ErrAccountExhausted    = errors.New("not enough account keys")
	ErrInvalidOpcode       = errors.New("invalid instruction opcode")
	ErrInvalidTag          = errors.New("invalid instruction tag")
	ErrMalformedPayload    = errors.New("malformed instruction payload")
	ErrDelegationFailure   = errors.New("token primitive rejected instruction")
	ErrInvalidAccount      = errors.New("invalid account for instruction slot")
	ErrInvalidAccountData  = errors.New("invalid account data")
	ErrAccountDataTooSmall = errors.New("account data too small")
)

// 结果码：写入调用结果事件，0 表示成功
const (
	CodeSuccess uint32 = iota
	CodeOwnershipMismatch
	CodeAccountExhausted
	CodeInvalidOpcode
	CodeInvalidTag
	CodeMalformedPayload
	CodeDelegationFailure
	CodeInvalidAccount
	CodeInvalidAccountData
	CodeAccountDataTooSmall

	CodeUnclassified uint32 = 0xFF
)

var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrOwnershipMismatch, CodeOwnershipMismatch},
	{ErrAccountExhausted, CodeAccountExhausted},
	{ErrInvalidOpcode, CodeInvalidOpcode},
	{ErrInvalidTag, CodeInvalidTag},
	{ErrMalformedPayload, CodeMalformedPayload},
	{ErrDelegationFailure, CodeDelegationFailure},
	{ErrInvalidAccount, CodeInvalidAccount},
	{ErrInvalidAccountData, CodeInvalidAccountData},
	{ErrAccountDataTooSmall, CodeAccountDataTooSmall},
}

// ErrorCode 将错误映射为稳定的数字结果码
func ErrorCode(err error) uint32 {
	if err == nil {
		return CodeSuccess
	}
	// DelegationError 可能包裹了其他分类错误，优先按委托失败归类
	var de *DelegationError
	if errors.As(err, &de) {
		return CodeDelegationFailure
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeUnclassified
}

// DelegationError 表示外部 token 原语拒绝了输入。
// 原始错误原样保留（Unwrap），同时满足 errors.Is(err, ErrDelegationFailure)。
type DelegationError struct {
	Op  string
	Err error
}

func (e *DelegationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDelegationFailure, e.Op, e.Err)
}

func (e *DelegationError) Unwrap() error {
	return e.Err
}

func (e *DelegationError) Is(target error) bool {
	return target == ErrDelegationFailure
}
