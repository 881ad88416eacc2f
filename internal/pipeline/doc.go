// Package pipeline provides the event admission pipeline.
//
// Every submission runs the same ordered checks and stops at the first
// failure:
//   - Validation: role is one of the fixed roles, tag and event type present
//   - Authorization: the event type belongs to the role
//   - Authentication: the credential matches the role's configured secret
//   - Reference: compensating event types carry a correction reference
//
// Only after every check passes is the record built and handed to the
// configured LogBackend, exactly once. Nothing is retried and identical
// resubmissions produce distinct records.
//
// # Request Contract
//
//	POST /api/submit
//	Content-Type: application/json
//
//	{
//	  "role": "SCALE",
//	  "pin": "...",
//	  "tag": "A123",
//	  "eventType": "WEIGH_IN",
//	  "payload": { "weight": 650 }
//	}
//
// Response:
//
//	{ "ok": true, "eventId": "..." }                       // NO_BLOCKCHAIN
//	{ "ok": true, "eventId": "0x..", "txHash": "0x..",
//	  "blockNumber": 12, "submittedBy": "0x.." }            // BLOCKCHAIN
//	{ "ok": false, "error": "...", "kind": "authorization" } // rejected
package pipeline
