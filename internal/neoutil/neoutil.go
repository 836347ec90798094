// Package neoutil implements the small set of Neo N3 codecs the indexer and
// read façade need at their edges: base64<->address<->hash160 conversions
// and enough script disassembly to locate a PUSHDATA2 operand. None of this
// is chain-validating; it is a thin, input/output-contract-only layer.
package neoutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
)

const addressVersion = 0x35 // Neo N3 mainnet address version byte

var b58Alphabet = []byte("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz")

// ErrInvalidChecksum is returned by AddressToHash160 when the base58check
// checksum does not match.
var ErrInvalidChecksum = errors.New("neoutil: invalid address checksum")

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}

func base58Encode(b []byte) string {
	zero := b58Alphabet[0]

	x := new(big.Int).SetBytes(b)
	mod := new(big.Int)
	base := big.NewInt(58)

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, b58Alphabet[mod.Int64()])
	}
	for _, c := range b {
		if c != 0 {
			break
		}
		out = append(out, zero)
	}
	// reverse
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(s string) ([]byte, error) {
	base := big.NewInt(58)
	x := new(big.Int)

	for _, c := range []byte(s) {
		idx := bytes.IndexByte(b58Alphabet, c)
		if idx < 0 {
			return nil, errors.New("neoutil: invalid base58 character")
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(idx)))
	}

	decoded := x.Bytes()

	numZeros := 0
	for _, c := range []byte(s) {
		if c != b58Alphabet[0] {
			break
		}
		numZeros++
	}

	out := make([]byte, numZeros+len(decoded))
	copy(out[numZeros:], decoded)
	return out, nil
}

// ScriptHashToAddress encodes a 20-byte little-endian script hash as a Neo
// N3 base58check address.
func ScriptHashToAddress(hash []byte) string {
	payload := make([]byte, 0, 1+len(hash))
	payload = append(payload, addressVersion)
	payload = append(payload, hash...)
	full := append(payload, checksum(payload)...)
	return base58Encode(full)
}

// AddressToHash160 decodes a Neo N3 address back into its 20-byte
// little-endian script hash.
func AddressToHash160(address string) ([]byte, error) {
	raw, err := base58Decode(address)
	if err != nil {
		return nil, err
	}
	if len(raw) != 25 {
		return nil, errors.New("neoutil: unexpected address length")
	}
	payload, sum := raw[:21], raw[21:]
	if !bytes.Equal(checksum(payload), sum) {
		return nil, ErrInvalidChecksum
	}
	return payload[1:], nil
}

// Base64ToScriptHash decodes a base64 ByteString notification value into its
// raw 20-byte script hash.
func Base64ToScriptHash(b64 string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Base64ToAddress decodes a base64 ByteString notification value (a raw
// script hash) into its Neo N3 address form.
func Base64ToAddress(b64 string) (string, error) {
	hash, err := Base64ToScriptHash(b64)
	if err != nil {
		return "", err
	}
	return ScriptHashToAddress(hash), nil
}

// Base64ToHex decodes base64 bytes and re-encodes them as a "0x"-prefixed
// hex string, in the byte order the value arrived in.
func Base64ToHex(b64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// Base64ToDisplayScriptHash decodes a base64 ByteString holding a raw,
// little-endian script hash and re-encodes it in the reversed, "0x"-prefixed
// display form used elsewhere for contract hashes. Unlike Base64ToHex, the
// bytes are reversed first; use this when the decoded value is itself a
// script hash rather than arbitrary ByteString payload.
func Base64ToDisplayScriptHash(b64 string) (string, error) {
	raw, err := Base64ToScriptHash(b64)
	if err != nil {
		return "", err
	}
	reversed := make([]byte, len(raw))
	for i, b := range raw {
		reversed[len(raw)-1-i] = b
	}
	return "0x" + hex.EncodeToString(reversed), nil
}

// AddressToBase64 is the inverse of Base64ToAddress: it encodes an address's
// script hash the same way the indexer persists ByteString notification
// values, so a search for an address among stored state values must look up
// this encoding rather than the address string itself.
func AddressToBase64(address string) (string, error) {
	hash160, err := AddressToHash160(address)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(hash160), nil
}

const opPushData2 = 0x0E

// FindPushData2Operand disassembles a hex-encoded script far enough to
// locate the first PUSHDATA2 instruction and returns its operand bytes. It
// returns ok=false when no PUSHDATA2 instruction is present or the script is
// truncated mid-instruction; it never errors, matching the best-effort
// fallback-to-empty behavior DetectContractDeployments relies on.
func FindPushData2Operand(scriptHex string) (operand []byte, ok bool) {
	script, err := hex.DecodeString(trimHexPrefix(scriptHex))
	if err != nil {
		return nil, false
	}

	i := 0
	for i < len(script) {
		op := script[i]
		if op == opPushData2 {
			if i+3 > len(script) {
				return nil, false
			}
			length := int(script[i+1]) | int(script[i+2])<<8
			start := i + 3
			if start+length > len(script) {
				return nil, false
			}
			return script[start : start+length], true
		}
		i++
	}
	return nil, false
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
