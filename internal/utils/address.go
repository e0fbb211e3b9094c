package utils

import (
	"regexp"
	"strings"
)

var evmHexPattern = regexp.MustCompile("^[0-9a-fA-F]{40}$")

// IsEvmAddress checks whether the string is a 20-byte EVM address, with
// or without the 0x prefix.
func IsEvmAddress(address string) bool {
	if address == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(address), "0x") {
		return len(address) == 42 && evmHexPattern.MatchString(address[2:])
	}
	return evmHexPattern.MatchString(address)
}

// NormalizeAddress lowercases an EVM address and ensures the 0x prefix.
// Address equality anywhere in this service is decided on normalized
// forms, never on raw case-sensitive strings.
func NormalizeAddress(address string) string {
	if address == "" {
		return ""
	}
	lower := strings.ToLower(address)
	if !strings.HasPrefix(lower, "0x") {
		lower = "0x" + lower
	}
	return lower
}

// SameAddress reports case-insensitive equality of two EVM addresses.
func SameAddress(a, b string) bool {
	return a != "" && NormalizeAddress(a) == NormalizeAddress(b)
}
