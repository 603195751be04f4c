package db

import (
	"fmt"

	"github.com/wx-shi/shadow-ledger/internal/model"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the stored records. Append only.
const (
	balanceValueField  protowire.Number = 1
	balanceRewardField protowire.Number = 2

	defectHeightField  protowire.Number = 1
	defectTxIndexField protowire.Number = 2
	defectKindField    protowire.Number = 3
	defectMessageField protowire.Number = 4
)

func encodeBalance(b *model.AddressBalance) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, balanceValueField, protowire.VarintType)
	buf = protowire.AppendVarint(buf, b.Value)
	buf = protowire.AppendTag(buf, balanceRewardField, protowire.VarintType)
	buf = protowire.AppendVarint(buf, b.RewardCount)
	return buf
}

func decodeBalance(address string, buf []byte) (*model.AddressBalance, error) {
	b := &model.AddressBalance{Address: address}
	err := consumeFields(buf, func(num protowire.Number, typ protowire.Type, rest []byte) (int, error) {
		switch {
		case num == balanceValueField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(rest)
			b.Value = v
			return n, nil
		case num == balanceRewardField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(rest)
			b.RewardCount = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, rest), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: balance %s: %v", ErrCorruptRecord, address, err)
	}
	return b, nil
}

func encodeDefect(d model.ScanDefect) []byte {
	var buf []byte
	buf = protowire.AppendTag(buf, defectHeightField, protowire.VarintType)
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(d.Height))
	buf = protowire.AppendTag(buf, defectTxIndexField, protowire.VarintType)
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(d.TxIndex)))
	buf = protowire.AppendTag(buf, defectKindField, protowire.BytesType)
	buf = protowire.AppendString(buf, d.Kind)
	buf = protowire.AppendTag(buf, defectMessageField, protowire.BytesType)
	buf = protowire.AppendString(buf, d.Message)
	return buf
}

func decodeDefect(buf []byte) (model.ScanDefect, error) {
	var d model.ScanDefect
	err := consumeFields(buf, func(num protowire.Number, typ protowire.Type, rest []byte) (int, error) {
		switch {
		case num == defectHeightField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(rest)
			d.Height = protowire.DecodeZigZag(v)
			return n, nil
		case num == defectTxIndexField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(rest)
			d.TxIndex = int(protowire.DecodeZigZag(v))
			return n, nil
		case num == defectKindField && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(rest)
			d.Kind = s
			return n, nil
		case num == defectMessageField && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(rest)
			d.Message = s
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, rest), nil
	})
	if err != nil {
		return d, fmt.Errorf("%w: defect: %v", ErrCorruptRecord, err)
	}
	return d, nil
}

func consumeFields(buf []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return protowire.ParseError(n)
		}
		buf = buf[n:]
		m, err := field(num, typ, buf)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		buf = buf[m:]
	}
	return nil
}
