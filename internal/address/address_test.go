package address

import (
	"crypto/ed25519"
	"errors"
	"testing"
)

var testProgram = Derive(Address{}, "test-program")

func TestCampaignAddressIsStable(t *testing.T) {
	t.Parallel()

	first := Campaign(testProgram, 7)
	second := Campaign(testProgram, 7)
	if first != second {
		t.Fatalf("campaign address changed between derivations: %s != %s", first, second)
	}
}

func TestCampaignAddressesDoNotCollide(t *testing.T) {
	t.Parallel()

	seen := make(map[Address]uint64)
	for cid := uint64(1); cid <= 1000; cid++ {
		addr := Campaign(testProgram, cid)
		if prev, ok := seen[addr]; ok {
			t.Fatalf("campaign %d collides with campaign %d", cid, prev)
		}
		seen[addr] = cid
	}
}

func TestDeriveSeparatesTagsAndSeeds(t *testing.T) {
	t.Parallel()

	donor := Derive(testProgram, "key", []byte("donor"))
	tests := []struct {
		name string
		a, b Address
	}{
		{"donor vs withdraw", Donation(testProgram, donor, 1, 1), Withdrawal(testProgram, donor, 1, 1)},
		{"sequence", Donation(testProgram, donor, 1, 1), Donation(testProgram, donor, 1, 2)},
		{"campaign", Donation(testProgram, donor, 1, 1), Donation(testProgram, donor, 2, 1)},
		{"seed boundary", Derive(testProgram, "t", []byte("ab"), []byte("c")), Derive(testProgram, "t", []byte("a"), []byte("bc"))},
		{"program", ProgramState(testProgram), ProgramState(Address{})},
	}
	for _, tt := range tests {
		if tt.a == tt.b {
			t.Errorf("%s: addresses collide: %s", tt.name, tt.a)
		}
	}
}

func TestU64IsLittleEndian(t *testing.T) {
	t.Parallel()

	got := U64(0x0102)
	want := []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}
	if string(got) != string(want) {
		t.Fatalf("U64(0x0102) = %v, want %v", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := FromPublicKey(pub)
	parsed, err := Parse(addr.String())
	if err != nil {
		t.Fatalf("parse %q: %v", addr.String(), err)
	}
	if parsed != addr {
		t.Fatalf("parsed = %s, want %s", parsed, addr)
	}
	if !parsed.PublicKey().Equal(pub) {
		t.Fatal("public key does not round trip")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "0OIl", "3yZe7d"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidAddress", in, err)
		}
	}
}

func TestSystemAddressText(t *testing.T) {
	t.Parallel()

	if got, want := System.String(), "11111111111111111111111111111111"; got != want {
		t.Fatalf("System = %q, want %q", got, want)
	}
}
