// Package protocol implements the framed host link: VLQ-encoded command
// IDs and arguments inside length-prefixed, CRC-checked, sequence-numbered
// blocks.
//
// Block layout:
//
//	len seq payload... crc_hi crc_lo 0x7E
//
// len counts the whole block. seq carries 0x10 in its high nibble and a
// 4-bit sequence number in its low nibble. A block with an empty payload is
// an ACK (or NAK) naming the next sequence the receiver expects.
package protocol

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F

	// OutputMax bounds the bytes queued between two flushes of the MCU
	// output buffer. An ACK plus two full blocks fit.
	OutputMax = 2*MessageLengthMax + MessageLengthMin
)

// nextSeq returns the sequence byte following seq
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// appendTrailer appends the CRC of block and the sync byte
func appendTrailer(block []byte) []byte {
	crc := CRC16(block)
	return append(block, uint8(crc>>8), uint8(crc), MessageValueSync)
}

// checkBlock validates the block at the head of data. It returns the
// block length, 0 if more bytes are needed, or -1 if the head is not a
// valid block and the receiver must resynchronize.
func checkBlock(data []byte) int {
	if len(data) < MessageLengthMin {
		return 0
	}
	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return -1
	}
	if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return -1
	}
	if len(data) < msgLen {
		return 0
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return -1
	}
	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
		uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return -1
	}
	return msgLen
}

// skipToSync drops bytes up to and including the next sync byte. ok is
// false when there is none and everything was dropped.
func skipToSync(data []byte) (rest []byte, ok bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return data[i+1:], true
		}
	}
	return nil, false
}
