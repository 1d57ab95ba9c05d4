package segy

// decodeTextHeader converts the 3200-byte textual header to a printable
// string. Rev1 mandates EBCDIC but ASCII exports are common, so the
// encoding is detected by printable-byte ratio.
func decodeTextHeader(raw []byte) string {
	if looksASCII(raw) {
		out := make([]byte, len(raw))
		for i, b := range raw {
			if b >= 0x20 && b <= 0x7e {
				out[i] = b
			} else {
				out[i] = ' '
			}
		}
		return string(out)
	}

	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = ebcdicToASCII(b)
	}
	return string(out)
}

// looksASCII reports whether the bulk of the header is printable ASCII.
// EBCDIC text encodes letters above 0x80, so headers in EBCDIC score low.
func looksASCII(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	printable := 0
	for _, b := range raw {
		if (b >= 0x20 && b <= 0x7e) || b == 0 || b == '\n' || b == '\r' {
			printable++
		}
	}
	return printable*4 >= len(raw)*3
}

// ebcdicToASCII maps one EBCDIC (code page 037) byte to its ASCII
// equivalent, substituting a space for anything unprintable.
func ebcdicToASCII(b byte) byte {
	switch {
	case b >= 0x81 && b <= 0x89:
		return 'a' + b - 0x81
	case b >= 0x91 && b <= 0x99:
		return 'j' + b - 0x91
	case b >= 0xa2 && b <= 0xa9:
		return 's' + b - 0xa2
	case b >= 0xc1 && b <= 0xc9:
		return 'A' + b - 0xc1
	case b >= 0xd1 && b <= 0xd9:
		return 'J' + b - 0xd1
	case b >= 0xe2 && b <= 0xe9:
		return 'S' + b - 0xe2
	case b >= 0xf0 && b <= 0xf9:
		return '0' + b - 0xf0
	}

	switch b {
	case 0x40:
		return ' '
	case 0x4b:
		return '.'
	case 0x4c:
		return '<'
	case 0x4d:
		return '('
	case 0x4e:
		return '+'
	case 0x4f:
		return '|'
	case 0x50:
		return '&'
	case 0x5a:
		return '!'
	case 0x5b:
		return '$'
	case 0x5c:
		return '*'
	case 0x5d:
		return ')'
	case 0x5e:
		return ';'
	case 0x60:
		return '-'
	case 0x61:
		return '/'
	case 0x6b:
		return ','
	case 0x6c:
		return '%'
	case 0x6d:
		return '_'
	case 0x6e:
		return '>'
	case 0x6f:
		return '?'
	case 0x7a:
		return ':'
	case 0x7b:
		return '#'
	case 0x7c:
		return '@'
	case 0x7d:
		return '\''
	case 0x7e:
		return '='
	case 0x7f:
		return '"'
	}
	return ' '
}

// EncodeTextHeader renders text as a 3200-byte EBCDIC textual header,
// space-padded or truncated to size.
func EncodeTextHeader(text string) []byte {
	out := make([]byte, TextHeaderSize)
	for i := range out {
		if i < len(text) {
			out[i] = asciiToEBCDIC(text[i])
		} else {
			out[i] = 0x40
		}
	}
	return out
}

// asciiToEBCDIC is the reverse mapping behind EncodeTextHeader.
func asciiToEBCDIC(b byte) byte {
	switch {
	case b >= 'a' && b <= 'i':
		return 0x81 + b - 'a'
	case b >= 'j' && b <= 'r':
		return 0x91 + b - 'j'
	case b >= 's' && b <= 'z':
		return 0xa2 + b - 's'
	case b >= 'A' && b <= 'I':
		return 0xc1 + b - 'A'
	case b >= 'J' && b <= 'R':
		return 0xd1 + b - 'J'
	case b >= 'S' && b <= 'Z':
		return 0xe2 + b - 'S'
	case b >= '0' && b <= '9':
		return 0xf0 + b - '0'
	}

	switch b {
	case ' ':
		return 0x40
	case '.':
		return 0x4b
	case '<':
		return 0x4c
	case '(':
		return 0x4d
	case '+':
		return 0x4e
	case '|':
		return 0x4f
	case '&':
		return 0x50
	case '!':
		return 0x5a
	case '$':
		return 0x5b
	case '*':
		return 0x5c
	case ')':
		return 0x5d
	case ';':
		return 0x5e
	case '-':
		return 0x60
	case '/':
		return 0x61
	case ',':
		return 0x6b
	case '%':
		return 0x6c
	case '_':
		return 0x6d
	case '>':
		return 0x6e
	case '?':
		return 0x6f
	case ':':
		return 0x7a
	case '#':
		return 0x7b
	case '@':
		return 0x7c
	case '\'':
		return 0x7d
	case '=':
		return 0x7e
	case '"':
		return 0x7f
	}
	return 0x40
}
