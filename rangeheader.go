package rangeserve

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const rangeUnitPrefix = "bytes="

// ByteRange is a single range parsed from a Range header.
//
// Start and End are inclusive byte offsets; End is -1 for an open-ended
// range ("bytes=N-"). A positive Suffix marks a suffix range ("bytes=-N"),
// in which case Start and End are unused.
type ByteRange struct {
	Start  int64
	End    int64
	Suffix int64
}

// FetchRange translates r into the window asked of a ByteStore.
func (r ByteRange) FetchRange() FetchRange {
	if r.Suffix > 0 {
		return FetchRange{Suffix: r.Suffix}
	}
	fr := FetchRange{Offset: r.Start}
	if r.End >= 0 {
		fr.Length = r.End - r.Start + 1
	}
	return fr
}

// ParseRange parses a single-range Range header value:
//
//	bytes=<start>-<end>
//	bytes=<start>-
//	bytes=-<suffix-length>
//
// Lists of ranges are rejected, since multipart/byteranges is not served.
// All failures wrap ErrRangeNotSatisfiable.
func ParseRange(header string) (ByteRange, error) {
	h := strings.TrimSpace(header)
	if len(h) < len(rangeUnitPrefix) || !strings.EqualFold(h[:len(rangeUnitPrefix)], rangeUnitPrefix) {
		return ByteRange{}, fmt.Errorf("parse range %q: %w: unsupported unit", header, ErrRangeNotSatisfiable)
	}

	spec := strings.TrimSpace(h[len(rangeUnitPrefix):])
	if strings.Contains(spec, ",") {
		return ByteRange{}, fmt.Errorf("parse range %q: %w: multiple ranges", header, ErrRangeNotSatisfiable)
	}

	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, fmt.Errorf("parse range %q: %w: missing '-'", header, ErrRangeNotSatisfiable)
	}

	if first == "" {
		suffix, err := parseOffset(last)
		if errors.Is(err, strconv.ErrRange) {
			// longer than any object; served whole
			suffix = math.MaxInt64
			err = nil
		}
		if err != nil || suffix == 0 {
			return ByteRange{}, fmt.Errorf("parse range %q: %w: invalid suffix length", header, ErrRangeNotSatisfiable)
		}
		return ByteRange{Suffix: suffix}, nil
	}

	start, err := parseOffset(first)
	if err != nil {
		return ByteRange{}, fmt.Errorf("parse range %q: %w: invalid start", header, ErrRangeNotSatisfiable)
	}

	if last == "" {
		return ByteRange{Start: start, End: -1}, nil
	}

	end, err := parseOffset(last)
	if errors.Is(err, strconv.ErrRange) {
		// past the end of any object, same as "bytes=<start>-"
		return ByteRange{Start: start, End: -1}, nil
	}
	if err != nil {
		return ByteRange{}, fmt.Errorf("parse range %q: %w: invalid end", header, ErrRangeNotSatisfiable)
	}

	if end < start {
		return ByteRange{}, fmt.Errorf("parse range %q: %w: end before start", header, ErrRangeNotSatisfiable)
	}

	return ByteRange{Start: start, End: end}, nil
}

// parseOffset accepts only ASCII digits; strconv alone would allow a sign.
// Digit strings too large for int64 return an error wrapping strconv.ErrRange.
func parseOffset(s string) (int64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// Clamp resolves r against an object of the given size and returns the
// window that will actually be served. Ranges that extend past the end are
// shortened; ranges that start at or past the end wrap ErrRangeNotSatisfiable.
func (r FetchRange) Clamp(size int64) (ServedRange, error) {
	if r.Suffix > 0 {
		if size == 0 {
			return ServedRange{}, fmt.Errorf("clamp suffix %d: %w: empty object", r.Suffix, ErrRangeNotSatisfiable)
		}
		length := min(r.Suffix, size)
		return ServedRange{Offset: size - length, Length: length}, nil
	}

	if r.Offset < 0 || r.Offset >= size {
		return ServedRange{}, fmt.Errorf("clamp offset %d: %w: object size %d", r.Offset, ErrRangeNotSatisfiable, size)
	}

	length := size - r.Offset
	if r.Length > 0 && r.Length < length {
		length = r.Length
	}

	return ServedRange{Offset: r.Offset, Length: length}, nil
}
