package record

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
)

// CredentialSize is the fixed length of an access credential in bytes.
const CredentialSize = 32

// Expiry (4) + Credential (32)
const RecordSize = 4 + CredentialSize

// EmptyExpiry marks a slot that holds no record.
const EmptyExpiry uint32 = 0

var ErrShortRecord = errors.New("record: buffer shorter than one slot")

// Credential is the opaque token presented by a key fob.
type Credential [CredentialSize]byte

// ParseCredential decodes a hex string into a Credential. Shorter inputs are
// right-padded with zero bytes, so "65" yields a credential whose first byte
// is 0x65.
func ParseCredential(s string) (Credential, error) {
	var c Credential

	raw, err := hex.DecodeString(s)
	if err != nil {
		return c, errors.Wrapf(err, "invalid credential %q", s)
	}
	if len(raw) == 0 || len(raw) > CredentialSize {
		return c, errors.Errorf("credential must be 1..%d bytes, got %d", CredentialSize, len(raw))
	}

	copy(c[:], raw)
	return c, nil
}

func (c Credential) String() string {
	return hex.EncodeToString(c[:])
}

// Short returns the first four bytes in hex, enough to tell records apart in
// logs without printing the whole token.
func (c Credential) Short() string {
	return hex.EncodeToString(c[:4])
}

// State is derived from a record's expiry and the current time; it is never
// stored.
type State uint8

const (
	StateEmpty State = iota // expiry == 0
	StateLive               // expiry > now
	StateStale              // 0 < expiry <= now
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLive:
		return "live"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Record is one directory slot as laid out on the medium.
type Record struct {
	Expiry     uint32 // Unix seconds, 0 when the slot is empty
	Credential Credential
}

func (r Record) State(now uint32) State {
	switch {
	case r.Expiry == EmptyExpiry:
		return StateEmpty
	case r.Expiry > now:
		return StateLive
	default:
		return StateStale
	}
}

func (r Record) IsEmpty() bool {
	return r.Expiry == EmptyExpiry
}

func (r Record) Matches(c Credential) bool {
	return bytes.Equal(r.Credential[:], c[:])
}

// Empty returns the zero record. Writing it clears a slot.
func Empty() Record {
	return Record{}
}

// EncodeInto writes the record into dst, which must hold at least
// RecordSize bytes.
//
//	<expiry:uint32 LE><credential:32 bytes>
func EncodeInto(dst []byte, r *Record) error {
	if len(dst) < RecordSize {
		return ErrShortRecord
	}

	binary.LittleEndian.PutUint32(dst[0:4], r.Expiry)
	copy(dst[4:RecordSize], r.Credential[:])

	return nil
}

func EncodeRecordToBytes(r *Record) []byte {
	buf := make([]byte, RecordSize)
	// buf is exactly RecordSize, EncodeInto cannot fail
	_ = EncodeInto(buf, r)
	return buf
}

// DecodeRecordFromBytes reads one record from the first RecordSize bytes of
// data. Any byte pattern decodes; an expiry of 0 is an empty slot whatever
// the credential bytes hold.
func DecodeRecordFromBytes(data []byte) (Record, error) {
	var r Record

	if len(data) < RecordSize {
		return r, ErrShortRecord
	}

	r.Expiry = binary.LittleEndian.Uint32(data[0:4])
	copy(r.Credential[:], data[4:RecordSize])

	return r, nil
}
