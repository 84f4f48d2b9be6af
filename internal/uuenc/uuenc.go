// Package uuenc implements the modified uuencoding used for binary
// attachments embedded in ASS subtitle scripts.
//
// Three input bytes map to four output characters, each carrying six
// bits offset by 33 so the payload stays printable. The final group may
// be short: two characters decode to one byte, three to two.
package uuenc

// Decode converts an encoded attachment body back to raw bytes.
// Line breaks inside the body are ignored. Trailing characters that do
// not form a full group are decoded per the short-tail rule.
func Decode(data []byte) []byte {
	ret := make([]byte, 0, len(data)*3/4)

	var group [4]byte
	n := 0
	for _, c := range data {
		if c == '\n' || c == '\r' {
			continue
		}
		group[n] = c - 33
		n++
		if n == 4 {
			ret = append(ret,
				group[0]<<2|group[1]>>4,
				group[1]<<4|group[2]>>2,
				group[2]<<6|group[3])
			n = 0
		}
	}
	if n > 1 {
		ret = append(ret, group[0]<<2|group[1]>>4)
	}
	if n > 2 {
		ret = append(ret, group[1]<<4|group[2]>>2)
	}
	return ret
}

// Encode converts raw bytes to the attachment body form, breaking
// lines at 80 characters the way script writers do.
func Encode(data []byte) []byte {
	ret := make([]byte, 0, (len(data)*4/3)+len(data)/60+4)

	written := 0
	emit := func(c byte) {
		if written == 80 {
			ret = append(ret, '\n')
			written = 0
		}
		ret = append(ret, c+33)
		written++
	}

	for len(data) >= 3 {
		emit(data[0] >> 2)
		emit(data[0]<<4&0x3F | data[1]>>4)
		emit(data[1]<<2&0x3F | data[2]>>6)
		emit(data[2] & 0x3F)
		data = data[3:]
	}
	switch len(data) {
	case 1:
		emit(data[0] >> 2)
		emit(data[0] << 4 & 0x3F)
	case 2:
		emit(data[0] >> 2)
		emit(data[0]<<4&0x3F | data[1]>>4)
		emit(data[1] << 2 & 0x3F)
	}
	return ret
}
