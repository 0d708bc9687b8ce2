package celo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is the compiled contract interface and deployment bytecode read
// from a build artifact produced by an external compiler (truffle/solc).
// The artifact format is owned by that tool, we only consume it.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

// rawArtifact mirrors the fields of a truffle build artifact that we use.
type rawArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact parses a truffle-style build artifact.
func LoadArtifact(r io.Reader) (*Artifact, error) {
	var raw rawArtifact
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode artifact: %v", err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %q has no abi", raw.ContractName)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %v", err)
	}
	var code []byte
	if b := strings.TrimSpace(raw.Bytecode); b != "" && b != "0x" {
		code, err = hexutil.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("decode bytecode: %v", err)
		}
	}
	return &Artifact{
		ContractName: raw.ContractName,
		ABI:          parsed,
		Bytecode:     code,
	}, nil
}

// LoadArtifactFile reads a build artifact from the compiler output
// directory, e.g. build/contracts/GoldToken.json.
func LoadArtifactFile(path string) (*Artifact, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadArtifact(f)
}

// Deployable reports whether the artifact carries deployment bytecode.
// Interface-only artifacts (abstract contracts) can be bound but not deployed.
func (a *Artifact) Deployable() bool {
	return len(a.Bytecode) > 0
}
