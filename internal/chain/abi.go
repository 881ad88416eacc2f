package chain

// ledgerABI is the subset of the event ledger contract the portal calls.
const ledgerABI = `[
  {
    "type": "function",
    "name": "logEvent",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "tag", "type": "string"},
      {"name": "eventType", "type": "string"},
      {"name": "payloadJson", "type": "string"},
      {"name": "docHash", "type": "bytes32"}
    ],
    "outputs": [{"name": "", "type": "uint256"}]
  },
  {
    "type": "event",
    "name": "EventLogged",
    "anonymous": false,
    "inputs": [
      {"name": "id", "type": "uint256", "indexed": true},
      {"name": "tag", "type": "string", "indexed": false},
      {"name": "eventType", "type": "string", "indexed": false},
      {"name": "timestamp", "type": "uint256", "indexed": false},
      {"name": "submitter", "type": "address", "indexed": true},
      {"name": "payloadJson", "type": "string", "indexed": false},
      {"name": "docHash", "type": "bytes32", "indexed": false}
    ]
  }
]`

const (
	methodLogEvent   = "logEvent"
	eventEventLogged = "EventLogged"
)
