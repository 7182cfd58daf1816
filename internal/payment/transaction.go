package payment

import (
	"encoding/binary"
	"fmt"
)

// Token program for SPL transfers.
const tokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// Transaction is a legacy-format chain transaction: a signature list over a
// compiled message.
type Transaction struct {
	Signatures [][]byte
	Message    Message
}

type Message struct {
	NumRequiredSignatures uint8
	NumReadonlySigned     uint8
	NumReadonlyUnsigned   uint8
	AccountKeys           [][]byte // 32 bytes each
	RecentBlockhash       []byte   // 32 bytes
	Instructions          []CompiledInstruction
}

type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []byte
}

// NewTokenTransfer builds an unsigned single-instruction token transfer.
// source and dest are token accounts; owner signs and pays the fee.
func NewTokenTransfer(owner, source, dest string, amount uint64, recentBlockhash string) (*Transaction, error) {
	keys := make([][]byte, 0, 4)
	for _, addr := range []string{owner, source, dest, tokenProgramID} {
		raw, err := base58Decode(addr)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("invalid account address %q", addr)
		}
		keys = append(keys, raw)
	}

	blockhash, err := base58Decode(recentBlockhash)
	if err != nil || len(blockhash) != 32 {
		return nil, fmt.Errorf("invalid recent blockhash")
	}

	// SPL Transfer: tag 3, u64 LE amount; accounts [source, dest, owner].
	data := make([]byte, 9)
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], amount)

	return &Transaction{
		Signatures: nil,
		Message: Message{
			NumRequiredSignatures: 1,
			NumReadonlySigned:     0,
			NumReadonlyUnsigned:   1,
			AccountKeys:           keys,
			RecentBlockhash:       blockhash,
			Instructions: []CompiledInstruction{{
				ProgramIDIndex: 3,
				AccountIndexes: []uint8{1, 2, 0},
				Data:           data,
			}},
		},
	}, nil
}

// Serialize produces the signable message bytes.
func (m *Message) Serialize() []byte {
	out := []byte{m.NumRequiredSignatures, m.NumReadonlySigned, m.NumReadonlyUnsigned}
	out = appendCompactU16(out, len(m.AccountKeys))
	for _, k := range m.AccountKeys {
		out = append(out, k...)
	}
	out = append(out, m.RecentBlockhash...)
	out = appendCompactU16(out, len(m.Instructions))
	for _, ins := range m.Instructions {
		out = append(out, ins.ProgramIDIndex)
		out = appendCompactU16(out, len(ins.AccountIndexes))
		out = append(out, ins.AccountIndexes...)
		out = appendCompactU16(out, len(ins.Data))
		out = append(out, ins.Data...)
	}
	return out
}

// Serialize produces the wire bytes submitted to the RPC.
func (t *Transaction) Serialize() []byte {
	out := appendCompactU16(nil, len(t.Signatures))
	for _, sig := range t.Signatures {
		out = append(out, sig...)
	}
	return append(out, t.Message.Serialize()...)
}

func appendCompactU16(out []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
