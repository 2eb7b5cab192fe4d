package royalty

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"SplitLedger/internal/codec"
	"SplitLedger/internal/storage"
)

// snapshotVersion is the current snapshot format version.
const snapshotVersion = 1

// snapshotBalance is one royalty balance entry in a snapshot.
type snapshotBalance struct {
	Address Address `cbor:"address"`
	Amount  uint64  `cbor:"amount"`
}

// snapshotPayload is the checksummed body of a snapshot. Records and
// balances are collected in storage key order, which is deterministic.
type snapshotPayload struct {
	Version  uint32               `cbor:"version"`
	Height   uint64               `cbor:"height"`
	Records  []ContributionRecord `cbor:"records"`
	Balances []snapshotBalance    `cbor:"balances"`
}

// snapshotEnvelope wraps the encoded payload with its blake3 checksum.
type snapshotEnvelope struct {
	Payload  []byte   `cbor:"payload"`
	Checksum [32]byte `cbor:"checksum"`
}

// ExportSnapshot serializes all contribution records and royalty balances
// into a zstd-compressed, checksummed snapshot.
func ExportSnapshot(db *storage.Storage, height uint64) ([]byte, error) {
	payload := snapshotPayload{
		Version: snapshotVersion,
		Height:  height,
	}

	err := db.IteratePrefix(prefixArtifact, func(key, value []byte) error {
		var record ContributionRecord
		if err := codec.Unmarshal(value, &record); err != nil {
			return fmt.Errorf("decode record %x:\n%w", key, err)
		}

		payload.Records = append(payload.Records, record)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect records:\n%w", err)
	}

	err = db.IteratePrefix(prefixBalance, func(key, value []byte) error {
		if len(key) != len(prefixBalance)+32 || len(value) < 8 {
			return nil
		}

		var addr Address
		copy(addr[:], key[len(prefixBalance):])

		payload.Balances = append(payload.Balances, snapshotBalance{
			Address: addr,
			Amount:  binary.BigEndian.Uint64(value),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect balances:\n%w", err)
	}

	body, err := codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot payload:\n%w", err)
	}

	envelope, err := codec.Marshal(snapshotEnvelope{
		Payload:  body,
		Checksum: blake3.Sum256(body),
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot envelope:\n%w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer:\n%w", err)
	}
	defer enc.Close()

	return enc.EncodeAll(envelope, nil), nil
}

// RestoreSnapshot verifies a snapshot's checksum and loads its records and
// balances into storage in a single atomic batch. Returns the snapshot
// height.
func RestoreSnapshot(db *storage.Storage, data []byte) (uint64, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return 0, fmt.Errorf("create zstd reader:\n%w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return 0, fmt.Errorf("decompress snapshot:\n%w", err)
	}

	var envelope snapshotEnvelope
	if err := codec.Unmarshal(raw, &envelope); err != nil {
		return 0, fmt.Errorf("decode snapshot envelope:\n%w", err)
	}

	if blake3.Sum256(envelope.Payload) != envelope.Checksum {
		return 0, fmt.Errorf("snapshot checksum mismatch")
	}

	var payload snapshotPayload
	if err := codec.Unmarshal(envelope.Payload, &payload); err != nil {
		return 0, fmt.Errorf("decode snapshot payload:\n%w", err)
	}

	if payload.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version: %d", payload.Version)
	}

	var pairs []storage.KeyValue

	for _, record := range payload.Records {
		data, err := codec.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("encode record:\n%w", err)
		}

		pairs = append(pairs, storage.KeyValue{
			Key:   makeArtifactKey(record.ArtifactID),
			Value: data,
		})
	}

	for _, bal := range payload.Balances {
		value := make([]byte, 8)
		binary.BigEndian.PutUint64(value, bal.Amount)

		pairs = append(pairs, storage.KeyValue{
			Key:   makeBalanceKey(bal.Address),
			Value: value,
		})
	}

	if err := db.SetBatch(pairs); err != nil {
		return 0, fmt.Errorf("load snapshot state:\n%w", err)
	}

	return payload.Height, nil
}
