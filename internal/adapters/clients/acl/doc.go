// Package acl provides Anti-Corruption Layer adapters that translate between
// the remote mirror's wire format and domain types.
//
// # What is an Anti-Corruption Layer?
//
// The Anti-Corruption Layer (ACL) is a pattern from Domain-Driven Design that
// keeps external representations out of the domain model:
//
//   - External DTOs never leak into the domain
//   - External error codes map to domain errors
//   - Changes to the remote API stop at this package
//
// # Package Components
//
//   - [TodoMirror]: ports.RemoteMirror over a JSON todo API
//   - [BaseAdapter]: Embeddable struct with request and error mapping
//   - [MapHTTPError]: HTTP status code to domain error mapping
//   - [DecodeResponse]: Generic JSON response decoder
//   - [TranslateSlice]: Batch translation that skips unusable records
//
// # Error Handling Strategy
//
// The remote's failures all become domain errors:
//   - 404 Not Found → [domain.ErrNotFound]
//   - 400/422 Validation → [domain.ErrValidation]
//   - 5xx, other 4xx, network, decoding → [domain.ErrUnavailable]
//
// Client-level errors ([clients.ErrCircuitOpen], [clients.ErrMaxRetriesExceeded])
// are also translated to [domain.ErrUnavailable]. The sync engine treats every
// one of them as a failed round and leaves the local collection untouched.
package acl
