package blockchain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// EventTopic returns the keccak256 hash of a canonical event signature,
// 0x-prefixed.
func EventTopic(signature string) string {
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write([]byte(signature))
	return "0x" + hex.EncodeToString(hash.Sum(nil))
}

// MethodSelector returns the first four bytes of the keccak256 hash of a
// canonical method signature, 0x-prefixed.
func MethodSelector(signature string) string {
	return EventTopic(signature)[:10]
}

// PadAddress left-pads a 20-byte hex address to a 32-byte word (no 0x).
func PadAddress(addr string) string {
	clean := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(addr)), "0x")
	return strings.Repeat("0", 64-len(clean)) + clean
}

// PadBig encodes a non-negative big integer as a 32-byte word (no 0x).
// Values wider than 256 bits are reduced mod 2^256, matching EVM word
// arithmetic; callers validating user input must bound-check first.
func PadBig(n *big.Int) string {
	if n == nil || n.Sign() < 0 {
		return strings.Repeat("0", 64)
	}
	if n.BitLen() > 256 {
		n = new(big.Int).And(n, maxWord)
	}
	clean := n.Text(16)
	return strings.Repeat("0", 64-len(clean)) + clean
}

var maxWord = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func PadUint64(n uint64) string {
	return PadBig(new(big.Int).SetUint64(n))
}

// EncodeStringArg appends a single dynamic string argument to calldata whose
// static head consists only of that argument.
func EncodeStringArg(s string) string {
	raw := []byte(s)
	padded := hex.EncodeToString(raw)
	if rem := len(padded) % 64; rem != 0 {
		padded += strings.Repeat("0", 64-rem)
	}
	return PadUint64(32) + PadUint64(uint64(len(raw))) + padded
}

// AddressTopic encodes an address as a log topic for filtering.
func AddressTopic(addr string) string {
	return "0x" + PadAddress(addr)
}

// Words splits 0x-prefixed ABI data into 32-byte words. Returns nil when the
// payload is not word-aligned.
func Words(dataHex string) []string {
	clean := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(dataHex)), "0x")
	if len(clean)%64 != 0 {
		return nil
	}
	words := make([]string, 0, len(clean)/64)
	for i := 0; i+64 <= len(clean); i += 64 {
		words = append(words, clean[i:i+64])
	}
	return words
}

func WordBig(word string) *big.Int {
	n, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return new(big.Int)
	}
	return n
}

func WordUint64(word string) uint64 {
	n := WordBig(word)
	if !n.IsUint64() {
		return 0
	}
	return n.Uint64()
}

func WordBool(word string) bool {
	return WordBig(word).Sign() != 0
}

func WordAddress(word string) string {
	clean := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(word)), "0x")
	if len(clean) < 40 {
		clean = strings.Repeat("0", 40-len(clean)) + clean
	}
	return "0x" + clean[len(clean)-40:]
}

// TopicAddress decodes an address from an indexed log topic.
func TopicAddress(topic string) string {
	return WordAddress(topic)
}

// TopicUint64 decodes an unsigned integer from an indexed log topic.
func TopicUint64(topic string) (uint64, error) {
	return ParseHexUint64(topic)
}

// DecodeStringAt decodes a dynamic string whose offset lives in word `slot`
// of the given ABI payload.
func DecodeStringAt(dataHex string, slot int) (string, error) {
	clean := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(dataHex)), "0x")
	words := Words(dataHex)
	if slot < 0 || slot >= len(words) {
		return "", fmt.Errorf("string slot %d out of range", slot)
	}
	offset := WordBig(words[slot])
	if !offset.IsUint64() || offset.Uint64()%32 != 0 {
		return "", fmt.Errorf("invalid string offset")
	}
	lenSlot := int(offset.Uint64() / 32)
	if lenSlot >= len(words) {
		return "", fmt.Errorf("string offset out of range")
	}
	strLen := WordBig(words[lenSlot])
	// Bound the length against the payload before any int math so a hostile
	// node cannot overflow the slice arithmetic.
	if !strLen.IsUint64() || strLen.Uint64() > uint64(len(clean)/2) {
		return "", fmt.Errorf("invalid string length")
	}
	start := (lenSlot + 1) * 64
	end := start + int(strLen.Uint64())*2
	if end > len(clean) {
		return "", fmt.Errorf("string data out of range")
	}
	raw, err := hex.DecodeString(clean[start:end])
	if err != nil {
		return "", fmt.Errorf("invalid string bytes: %w", err)
	}
	return string(raw), nil
}
