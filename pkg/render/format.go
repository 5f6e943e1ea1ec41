package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// siOrder lists the SI prefixes Abbreviate walks through; siSuffix maps them
// to the count suffixes shown on the page. Trillions is the largest unit.
var siOrder = []string{"", "k", "M", "G", "T"}

var siSuffix = map[string]string{
	"":  "",
	"k": "K",
	"M": "M",
	"G": "B",
	"T": "T",
}

// Abbreviate renders a count with at most two decimals and a K/M/B/T
// suffix: 0 -> "0", 1200 -> "1.2K", 1234 -> "1.23K", 999999 -> "1M".
// Counts past a thousand trillion stay in T.
func Abbreviate(n int64) string {
	sign := ""
	u := uint64(n)
	if n < 0 {
		sign = "-"
		u = -u
	}
	if u < 1000 {
		return sign + strconv.FormatUint(u, 10)
	}

	v, prefix := humanize.ComputeSI(float64(u))
	switch prefix {
	case "P":
		v, prefix = v*1e3, "T"
	case "E":
		v, prefix = v*1e6, "T"
	}
	s := trimZeros(strconv.FormatFloat(v, 'f', 2, 64))
	if f, _ := strconv.ParseFloat(s, 64); f >= 1000 {
		if next := nextPrefix(prefix); next != "" {
			prefix = next
			s = trimZeros(strconv.FormatFloat(v/1000, 'f', 2, 64))
		}
	}
	return sign + s + siSuffix[prefix]
}

func nextPrefix(p string) string {
	for i, v := range siOrder {
		if v == p && i+1 < len(siOrder) {
			return siOrder[i+1]
		}
	}
	return ""
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Duration formats seconds as m:ss or h:mm:ss. Zero or negative yields "".
func Duration(secs int64) string {
	if secs <= 0 {
		return ""
	}
	h := secs / 3600
	m := secs % 3600 / 60
	s := secs % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
