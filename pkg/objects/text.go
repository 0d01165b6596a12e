package objects

import "unicode/utf16"

// UTF16Len returns the length of s in UTF-16 code units, the unit Telegram
// uses for entity offsets.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// SliceUTF16 returns the substring of s starting at the UTF-16 offset and
// spanning length code units. A negative length means "to the end of s".
// Out-of-range bounds are clamped.
func SliceUTF16(s string, offset, length int) string {
	if offset < 0 {
		offset = 0
	}
	if s == "" || length == 0 {
		return ""
	}

	start := utf16OffsetToByteIndex(s, offset)
	end := len(s)
	if length > 0 {
		end = utf16OffsetToByteIndex(s, offset+length)
	}
	if start > end {
		return ""
	}
	return s[start:end]
}

// utf16OffsetToByteIndex maps a UTF-16 offset onto a byte index in s. An
// offset that falls inside a surrogate pair resolves to the end of that rune.
func utf16OffsetToByteIndex(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	count := 0
	for i, r := range s {
		if count >= offset {
			return i
		}
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		count += n
	}
	return len(s)
}
