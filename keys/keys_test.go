package keys

import (
	"math/big"
	"testing"
)

// Well-known throwaway development key (ganache account #0). Never fund it.
const (
	devKeyHex  = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"
	devAddrHex = "0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"
)

func Test_FromHex(t *testing.T) {

	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"plain", devKeyHex, false},
		{"with-prefix", "0x" + devKeyHex, false},
		{"empty", "", true},
		{"truncated", devKeyHex[:10], true},
		{"not-hex", "zzzz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := FromHex(tt.secret)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.secret)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := id.Address.Hex(); got != devAddrHex {
				t.Fatalf("derived address %v, want %v", got, devAddrHex)
			}
		})
	}
}

func Test_Transactor(t *testing.T) {

	id, err := FromHex(devKeyHex)
	if err != nil {
		t.Fatal(err)
	}

	opts, err := id.Transactor(big.NewInt(44787)) // Alfajores
	if err != nil {
		t.Fatal(err)
	}
	if opts.From != id.Address {
		t.Fatalf("transactor from %v, want %v", opts.From, id.Address)
	}
	if opts.Signer == nil {
		t.Fatal("transactor has no signer")
	}
}
