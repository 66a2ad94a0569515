package blockchain

import (
	"math/big"
	"testing"
)

func TestEventTopicMatchesKnownKeccak(t *testing.T) {
	got := EventTopic("Transfer(address,address,uint256)")
	want := "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestMethodSelector(t *testing.T) {
	if got := MethodSelector("transfer(address,uint256)"); got != "0xa9059cbb" {
		t.Fatalf("expected 0xa9059cbb, got %s", got)
	}
	if got := MethodSelector("approve(address,uint256)"); got != "0x095ea7b3" {
		t.Fatalf("expected 0x095ea7b3, got %s", got)
	}
}

func TestPadAddressAndRoundTrip(t *testing.T) {
	addr := "0xAbC0000000000000000000000000000000000123"
	word := PadAddress(addr)
	if len(word) != 64 {
		t.Fatalf("expected 64 chars, got %d", len(word))
	}
	if got := WordAddress(word); got != "0xabc0000000000000000000000000000000000123" {
		t.Fatalf("unexpected round trip: %s", got)
	}
}

func TestPadBig(t *testing.T) {
	word := PadBig(big.NewInt(255))
	if word != "00000000000000000000000000000000000000000000000000000000000000ff" {
		t.Fatalf("unexpected word: %s", word)
	}
	if got := WordBig(word); got.Cmp(big.NewInt(255)) != 0 {
		t.Fatalf("unexpected round trip: %s", got)
	}
}

func TestPadBigReducesOverwideValuesModWord(t *testing.T) {
	wide := new(big.Int).Lsh(big.NewInt(1), 260)
	wide.Add(wide, big.NewInt(5))

	word := PadBig(wide)
	if len(word) != 64 {
		t.Fatalf("expected 64 chars, got %d", len(word))
	}
	if got := WordBig(word); got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected low 256 bits to survive, got %s", got)
	}
}

func TestWordsRejectsUnaligned(t *testing.T) {
	if words := Words("0xabc"); words != nil {
		t.Fatalf("expected nil for unaligned data, got %v", words)
	}
	words := Words("0x" + PadUint64(1) + PadUint64(2))
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if WordUint64(words[1]) != 2 {
		t.Fatalf("unexpected second word: %s", words[1])
	}
}

func TestEncodeStringArgRoundTrip(t *testing.T) {
	data := "0x" + EncodeStringArg("Siti Rahma")
	got, err := DecodeStringAt(data, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "Siti Rahma" {
		t.Fatalf("expected Siti Rahma, got %q", got)
	}
}

func TestDecodeStringAtRejectsBadOffset(t *testing.T) {
	data := "0x" + PadUint64(31) + PadUint64(0)
	if _, err := DecodeStringAt(data, 0); err == nil {
		t.Fatalf("expected error for unaligned offset")
	}
	data = "0x" + PadUint64(320)
	if _, err := DecodeStringAt(data, 0); err == nil {
		t.Fatalf("expected error for out of range offset")
	}
}

func TestDecodeStringAtRejectsOverflowingLength(t *testing.T) {
	data := "0x" + PadUint64(32) + PadUint64(1<<62)
	if _, err := DecodeStringAt(data, 0); err == nil {
		t.Fatalf("expected error for length wider than payload")
	}
}
