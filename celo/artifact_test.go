package celo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testArtifact = `{
  "contractName": "Greeter",
  "abi": [
    {"inputs": [], "name": "greet", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"}
  ],
  "bytecode": "0x600b600c600039600b6000f361271060005260206000f3"
}`

func Test_LoadArtifact(t *testing.T) {

	art, err := LoadArtifact(strings.NewReader(testArtifact))
	if err != nil {
		t.Fatal(err)
	}
	if art.ContractName != "Greeter" {
		t.Fatalf("contract name %q", art.ContractName)
	}
	if _, ok := art.ABI.Methods["greet"]; !ok {
		t.Fatal("abi missing greet method")
	}
	if len(art.Bytecode) != 23 {
		t.Fatalf("bytecode length %d, want 23", len(art.Bytecode))
	}
	if !art.Deployable() {
		t.Fatal("artifact should be deployable")
	}
}

func Test_LoadArtifact_Errors(t *testing.T) {

	tests := []struct {
		name  string
		input string
	}{
		{"not-json", "not json at all"},
		{"missing-abi", `{"contractName": "X", "bytecode": "0x00"}`},
		{"bad-abi", `{"contractName": "X", "abi": [{"type": "function", "inputs": "nope"}], "bytecode": "0x00"}`},
		{"bad-bytecode", `{"contractName": "X", "abi": [], "bytecode": "0xzz"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadArtifact(strings.NewReader(tt.input)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func Test_LoadArtifact_NoBytecode(t *testing.T) {

	art, err := LoadArtifact(strings.NewReader(`{"contractName": "IGreeter", "abi": [], "bytecode": "0x"}`))
	if err != nil {
		t.Fatal(err)
	}
	if art.Deployable() {
		t.Fatal("interface-only artifact must not be deployable")
	}
}

func Test_LoadArtifactFile(t *testing.T) {

	path := filepath.Join(t.TempDir(), "Greeter.json")
	if err := os.WriteFile(path, []byte(testArtifact), 0o600); err != nil {
		t.Fatal(err)
	}

	art, err := LoadArtifactFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if art.ContractName != "Greeter" {
		t.Fatalf("contract name %q", art.ContractName)
	}

	if _, err := LoadArtifactFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
