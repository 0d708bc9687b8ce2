// Package data carries the build artifact for the tutorial's GoldToken
// sample contract, checked in so the flow can be exercised without a
// compiler toolchain.
package data

// GoldTokenArtifact is the build artifact for GoldToken, a minimal
// hand-assembled token. Balances live in contract storage, keyed by the
// holder address word. The constructor credits the deployer with 10000
// units, balanceOf loads the holder's slot and transfer moves units from
// the caller to the recipient, reverting when the caller's balance is
// insufficient.
//
// Creation code (returns the 0x51-byte runtime below):
//
//	612710 33 55                     sstore(caller, 10000)
//	6051 6011 6000 39                codecopy(0, 0x11, 0x51)
//	6051 6000 f3                     return(0, 0x51)
//
// Runtime:
//
//	6000 35 60e0 1c                  selector := shr(224, calldataload(0))
//	80 6370a08231 14 601f 57         jumpi @balanceOf if selector == 0x70a08231
//	80 63a9059cbb 14 602d 57         jumpi @transfer  if selector == 0xa9059cbb
//	6000 6000 fd                     revert(0, 0)
//	0x1f: 5b 50                      @balanceOf:
//	6004 35 54 6000 52               mstore(0, sload(calldataload(4)))
//	6020 6000 f3                     return(0, 32)
//	0x2d: 5b 50                      @transfer:
//	6024 35 33 54                    amount, bal := calldataload(0x24), sload(caller)
//	80 82 11 604b 57                 jumpi @insufficient if amount > bal
//	81 81 03 33 55 50                sstore(caller, bal - amount)
//	6004 35 80 54 82 01 90 55 50     sstore(to, sload(to) + amount)
//	00                               stop
//	0x4b: 5b 6000 6000 fd            @insufficient: revert(0, 0)
const GoldTokenArtifact = `{
  "contractName": "GoldToken",
  "abi": [
    {
      "inputs": [],
      "stateMutability": "nonpayable",
      "type": "constructor"
    },
    {
      "inputs": [
        { "internalType": "address", "name": "holder", "type": "address" }
      ],
      "name": "balanceOf",
      "outputs": [
        { "internalType": "uint256", "name": "", "type": "uint256" }
      ],
      "stateMutability": "view",
      "type": "function"
    },
    {
      "inputs": [
        { "internalType": "address", "name": "to", "type": "address" },
        { "internalType": "uint256", "name": "amount", "type": "uint256" }
      ],
      "name": "transfer",
      "outputs": [],
      "stateMutability": "nonpayable",
      "type": "function"
    }
  ],
  "bytecode": "0x61271033556051601160003960516000f360003560e01c806370a0823114601f578063a9059cbb14602d5760006000fd5b506004355460005260206000f35b506024353354808211604b5781810333555060043580548201905550005b60006000fd",
  "deployedBytecode": "0x60003560e01c806370a0823114601f578063a9059cbb14602d5760006000fd5b506004355460005260206000f35b506024353354808211604b5781810333555060043580548201905550005b60006000fd"
}`
