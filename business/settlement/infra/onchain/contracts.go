package onchain

// DexABI is the ABI for the deployed Dex contract.
// Only includes getBalance, the diagnostic read path the engine uses.
const DexABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "_tokenAddress", "type": "address"}
		],
		"name": "getBalance",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`
