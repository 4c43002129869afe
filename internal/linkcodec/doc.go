// Package linkcodec turns a single assignment into a self-contained,
// tamper-evident token that only the giver can open.
//
// Token layout, before text encoding:
//
//	nonce (12 bytes) || ciphertext || GCM tag (16 bytes)
//
// The key is PBKDF2-HMAC-SHA256 over the giver's name with a fixed public salt
// and 100000 iterations. The salt only separates this use of PBKDF2 from
// others; it adds no secrecy and is kept fixed so tokens stay readable across
// versions. The bytes are rendered as unpadded base64url, safe to place in a
// URL query without escaping.
package linkcodec
