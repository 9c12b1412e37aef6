package shapefile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// decoderFor returns the decoder for the code page named in a .cpg file.
// Without a .cpg the data is taken as UTF-8 and, where it is not valid UTF-8,
// as ISO-8859-1 (the dBASE default).
func decoderFor(cpgPath string) (*encoding.Decoder, error) {
	data, err := os.ReadFile(cpgPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", cpgPath, err)
	}

	name := strings.ToUpper(strings.TrimSpace(string(data)))
	name = strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
	switch name {
	case "", "UTF8", "65001":
		return nil, nil
	case "1252", "CP1252", "WINDOWS1252", "ANSI1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "88591", "ISO88591", "LATIN1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "1250", "CP1250", "WINDOWS1250":
		return charmap.Windows1250.NewDecoder(), nil
	case "437", "CP437", "OEM":
		return charmap.CodePage437.NewDecoder(), nil
	}
	return nil, fmt.Errorf("unsupported code page %q in %s", strings.TrimSpace(string(data)), cpgPath)
}

func decodeText(raw string, dec *encoding.Decoder) string {
	if dec != nil {
		if s, err := dec.String(raw); err == nil {
			return s
		}
	}
	if !utf8.ValidString(raw) {
		if s, err := charmap.ISO8859_1.NewDecoder().String(raw); err == nil {
			return s
		}
	}
	return raw
}

// parseAttribute types a raw DBF value by its field definition: N without
// decimals as int64, N with decimals and F as float64, L as bool, D as
// YYYY-MM-DD and everything else as text. Blank numeric, logical and date
// values are null.
func parseAttribute(f shp.Field, raw string, dec *encoding.Decoder) any {
	raw = strings.TrimRight(raw, "\x00")

	switch f.Fieldtype {
	case 'N', 'F':
		s := strings.TrimSpace(raw)
		if s == "" || strings.Trim(s, "*") == "" {
			return nil
		}
		if f.Fieldtype == 'N' && f.Precision == 0 {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return nil
	case 'L':
		switch strings.ToUpper(strings.TrimSpace(raw)) {
		case "Y", "T":
			return true
		case "N", "F":
			return false
		}
		return nil
	case 'D':
		s := strings.TrimSpace(raw)
		if len(s) != 8 {
			return nil
		}
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	return strings.TrimSpace(decodeText(raw, dec))
}
