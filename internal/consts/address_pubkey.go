package consts

import (
	"registry-program-sol/internal/types"
)

// 公钥形式的地址常量（types.Pubkey），用于链上比对
var (
	// Programs
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022       = types.PubkeyFromBase58(TokenProgram2022Str)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)

	// Sysvars
	SysvarRent = types.PubkeyFromBase58(SysvarRentStr)

	RegistryProgram = types.PubkeyFromBase58(RegistryProgramStr)
)
