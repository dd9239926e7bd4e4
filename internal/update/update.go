// Package update decodes the credential-update packets the reader receives
// over its radio link and applies them to the directory.
package update

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/0xRadioAc7iv/go-flashdir/internal/record"
)

// DoorID (2) + Expiry (4) + Padding (2) + Credential (32)
const PacketSize = 2 + 4 + 2 + record.CredentialSize

// DefaultDoorID identifies the door this reader controls.
const DefaultDoorID uint16 = 6

var (
	ErrShortPacket = errors.New("update: packet shorter than 40 bytes")
	ErrPacketSize  = errors.New("update: packet longer than 40 bytes")
)

// Packet is one credential update addressed to a door.
//
//	<door_id:uint16 LE><expiry:uint32 LE><padding:2 bytes><credential:32 bytes>
type Packet struct {
	DoorID     uint16
	Expiry     uint32 // Unix seconds
	Credential record.Credential
}

func Decode(data []byte) (*Packet, error) {
	if len(data) < PacketSize {
		return nil, ErrShortPacket
	}
	if len(data) > PacketSize {
		return nil, ErrPacketSize
	}

	p := &Packet{
		DoorID: binary.LittleEndian.Uint16(data[0:2]),
		Expiry: binary.LittleEndian.Uint32(data[2:6]),
	}
	// data[6:8] is padding
	copy(p.Credential[:], data[8:PacketSize])

	return p, nil
}

// Encode lays the packet out on the wire with zero padding.
func Encode(p *Packet) []byte {
	buf := make([]byte, PacketSize)

	binary.LittleEndian.PutUint16(buf[0:2], p.DoorID)
	binary.LittleEndian.PutUint32(buf[2:6], p.Expiry)
	copy(buf[8:PacketSize], p.Credential[:])

	return buf
}

// Putter stores a credential; *core.Directory satisfies it.
type Putter interface {
	Put(credential record.Credential, expiry, now uint32) error
}

// Outcome says what Receive did with a packet.
type Outcome uint8

const (
	OutcomeStored Outcome = iota
	OutcomeIgnoredDoor
	OutcomeIgnoredExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeIgnoredDoor:
		return "ignored: foreign door"
	case OutcomeIgnoredExpired:
		return "ignored: already expired"
	default:
		return "unknown"
	}
}

// Receiver filters update packets for one door and stores the rest.
type Receiver struct {
	Store  Putter
	DoorID uint16
}

// Receive decodes raw and applies it at time now. Packets for another door,
// and packets whose expiry is not after now, are dropped without touching
// the store.
func (r *Receiver) Receive(now uint32, raw []byte) (Outcome, error) {
	p, err := Decode(raw)
	if err != nil {
		return 0, err
	}

	log := logrus.WithFields(logrus.Fields{
		"door":       p.DoorID,
		"credential": p.Credential.Short(),
		"expiry":     p.Expiry,
	})

	if p.DoorID != r.DoorID {
		log.Debug("ignoring update for another door")
		return OutcomeIgnoredDoor, nil
	}
	if p.Expiry <= now {
		log.Debug("ignoring expired update")
		return OutcomeIgnoredExpired, nil
	}

	if err := r.Store.Put(p.Credential, p.Expiry, now); err != nil {
		return 0, errors.Wrap(err, "store update")
	}

	log.Debug("stored update")
	return OutcomeStored, nil
}
