// Package ton holds the small amount of TON wire knowledge the exchange
// needs: address parsing and nanoton conversion.
package ton

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	tagBounceable    byte = 0x11
	tagNonBounceable byte = 0x51
	tagTestnet       byte = 0x80

	friendlyLen = 48
	rawLen      = 36
)

// ErrInvalidAddress is returned for any address that fails to parse
var ErrInvalidAddress = errors.New("invalid TON address")

// Address is a parsed TON account address
type Address struct {
	Workchain  int32
	Hash       [32]byte
	Bounceable bool
	Testnet    bool
}

// ParseAddress accepts the user-friendly base64 form (standard or URL
// alphabet) and the raw "workchain:hex" form.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		return parseRaw(s)
	}
	return parseFriendly(s)
}

func parseRaw(s string) (Address, error) {
	parts := strings.SplitN(s, ":", 2)
	wc, err := strconv.ParseInt(parts[0], 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("%w: workchain: %v", ErrInvalidAddress, err)
	}
	hash, err := hex.DecodeString(parts[1])
	if err != nil || len(hash) != 32 {
		return Address{}, fmt.Errorf("%w: account id must be 64 hex characters", ErrInvalidAddress)
	}
	addr := Address{Workchain: int32(wc), Bounceable: true}
	copy(addr.Hash[:], hash)
	return addr, nil
}

func parseFriendly(s string) (Address, error) {
	if len(s) != friendlyLen {
		return Address{}, fmt.Errorf("%w: expected %d characters, got %d", ErrInvalidAddress, friendlyLen, len(s))
	}

	var data []byte
	var err error
	if strings.ContainsAny(s, "-_") {
		data, err = base64.URLEncoding.DecodeString(s)
	} else {
		data, err = base64.StdEncoding.DecodeString(s)
	}
	if err != nil || len(data) != rawLen {
		return Address{}, fmt.Errorf("%w: bad encoding", ErrInvalidAddress)
	}

	if crc16(data[:34]) != binary.BigEndian.Uint16(data[34:]) {
		return Address{}, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	tag := data[0]
	addr := Address{Testnet: tag&tagTestnet != 0}
	switch tag &^ tagTestnet {
	case tagBounceable:
		addr.Bounceable = true
	case tagNonBounceable:
	default:
		return Address{}, fmt.Errorf("%w: unknown tag 0x%02x", ErrInvalidAddress, tag)
	}
	addr.Workchain = int32(int8(data[1]))
	copy(addr.Hash[:], data[2:34])
	return addr, nil
}

// String renders the user-friendly URL-safe form
func (a Address) String() string {
	data := make([]byte, rawLen)
	data[0] = tagNonBounceable
	if a.Bounceable {
		data[0] = tagBounceable
	}
	if a.Testnet {
		data[0] |= tagTestnet
	}
	data[1] = byte(int8(a.Workchain))
	copy(data[2:34], a.Hash[:])
	binary.BigEndian.PutUint16(data[34:], crc16(data[:34]))
	return base64.URLEncoding.EncodeToString(data)
}

// Raw renders the "workchain:hex" form
func (a Address) Raw() string {
	return fmt.Sprintf("%d:%s", a.Workchain, hex.EncodeToString(a.Hash[:]))
}

// Canonical parses s and returns its raw form, the one spelling shared by
// every encoding of the same account
func Canonical(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return addr.Raw(), nil
}

// Equal compares the account identity and ignores presentation flags
func (a Address) Equal(b Address) bool {
	return a.Workchain == b.Workchain && a.Hash == b.Hash
}

// SameAccount reports whether two address strings name the same account
func SameAccount(a, b string) bool {
	pa, err := ParseAddress(a)
	if err != nil {
		return false
	}
	pb, err := ParseAddress(b)
	if err != nil {
		return false
	}
	return pa.Equal(pb)
}

// crc16 is CRC-16/XMODEM
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// ErrInvalidAmount is returned for TON amounts that cannot be sent as a
// whole number of nanotons
var ErrInvalidAmount = errors.New("invalid TON amount")

var (
	nanoPerTON = decimal.New(1, 9)
	maxNano    = decimal.NewFromInt(math.MaxInt64)
)

// ToNano converts a TON amount to nanotons. Amounts finer than one nanoton
// or outside the int64 range are rejected rather than rounded or wrapped.
func ToNano(amount decimal.Decimal) (int64, error) {
	nano := amount.Mul(nanoPerTON)
	if !nano.Equal(nano.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than 9 decimal places", ErrInvalidAmount)
	}
	if nano.Abs().GreaterThan(maxNano) {
		return 0, fmt.Errorf("%w: %s TON is out of range", ErrInvalidAmount, amount)
	}
	return nano.IntPart(), nil
}

// FromNano converts nanotons to TON
func FromNano(nano int64) decimal.Decimal {
	return decimal.New(nano, -9)
}
