package resources

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// A review id is a sequence of 3-digit, zero-padded decimal ASCII codes, one per
// character of its display form, e.g. the display id "az" is stored as "097122".
// Characters come from a 62 symbol alphabet ordered '0'-'9', 'A'-'Z', 'a'-'z'.

// StartReviewID is the first id handed out for every owner ("0").
const StartReviewID = "048"

const (
	codeZero   = 48  // '0'
	codeNine   = 57  // '9'
	codeUpper  = 65  // 'A'
	codeUpperZ = 90  // 'Z'
	codeLower  = 97  // 'a'
	codeLowerZ = 122 // 'z'

	alphabetSize = 62
	tripletWidth = 3

	// 62^11 overflows an int64
	maxDecodableLength = 10
)

// ErrMalformedReviewID is returned for ids that are not well formed triplet sequences.
var ErrMalformedReviewID = errors.New("malformed review id")

// NextReviewID returns the id that follows id in the per-owner sequence.
// The least significant character is incremented; 'z' wraps to '0' and carries,
// and a carry out of the most significant character grows the id by one character.
func NextReviewID(id string) (string, error) {
	codes, err := parseReviewID(id)
	if err != nil {
		return "", err
	}

	i := len(codes) - 1
	for ; i >= 0; i-- {
		next, carry := nextCode(codes[i])
		codes[i] = next
		if !carry {
			break
		}
	}
	if i < 0 {
		codes = append([]int{codeZero}, codes...)
	}
	return formatCodes(codes), nil
}

// DecodeReviewID returns the position of id in the sequence that starts at StartReviewID,
// so DecodeReviewID(NextReviewID(id)) == DecodeReviewID(id)+1 for every valid id.
// Ids of one character come first, then ids of two characters, and so on.
func DecodeReviewID(id string) (int64, error) {
	codes, err := parseReviewID(id)
	if err != nil {
		return 0, err
	}
	if len(codes) > maxDecodableLength {
		return 0, xerrors.Errorf("review id %q is too long to decode: %w", id, ErrMalformedReviewID)
	}

	var offset, width int64 = 0, 1
	for i := 1; i < len(codes); i++ {
		width *= alphabetSize
		offset += width
	}

	var value int64
	for _, code := range codes {
		value = value*alphabetSize + int64(digitValue(code))
	}
	return offset + value, nil
}

// NewReviewID encodes an alphanumeric display id, e.g. "az" becomes "097122".
func NewReviewID(alphanumeric string) (string, error) {
	if alphanumeric == "" {
		return "", xerrors.Errorf("empty display id: %w", ErrMalformedReviewID)
	}
	var b strings.Builder
	for _, r := range alphanumeric {
		if r > 127 || digitValue(int(r)) < 0 {
			return "", xerrors.Errorf("display id %q is not alphanumeric: %w", alphanumeric, ErrMalformedReviewID)
		}
		fmt.Fprintf(&b, "%03d", r)
	}
	return b.String(), nil
}

// ReviewIDString decodes a stored id into its display form, e.g. "097122" becomes "az".
func ReviewIDString(id string) (string, error) {
	codes, err := parseReviewID(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, code := range codes {
		b.WriteByte(byte(code))
	}
	return b.String(), nil
}

// IsValidReviewID reports whether id is a well formed triplet sequence.
func IsValidReviewID(id string) bool {
	_, err := parseReviewID(id)
	return err == nil
}

func parseReviewID(id string) ([]int, error) {
	if id == "" || len(id)%tripletWidth != 0 {
		return nil, xerrors.Errorf("review id %q length is not a positive multiple of %d: %w", id, tripletWidth, ErrMalformedReviewID)
	}
	codes := make([]int, 0, len(id)/tripletWidth)
	for i := 0; i < len(id); i += tripletWidth {
		triplet := id[i : i+tripletWidth]
		for _, c := range triplet {
			if c < '0' || c > '9' {
				return nil, xerrors.Errorf("review id %q contains non-digit %q: %w", id, c, ErrMalformedReviewID)
			}
		}
		code, _ := strconv.Atoi(triplet)
		if digitValue(code) < 0 {
			return nil, xerrors.Errorf("review id %q code %s is not alphanumeric: %w", id, triplet, ErrMalformedReviewID)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// nextCode returns the code following code and whether the increment carried.
func nextCode(code int) (int, bool) {
	switch code {
	case codeNine:
		return codeUpper, false
	case codeUpperZ:
		return codeLower, false
	case codeLowerZ:
		return codeZero, true
	default:
		return code + 1, false
	}
}

// digitValue maps an ASCII code to its place in the alphabet, or -1.
func digitValue(code int) int {
	switch {
	case code >= codeZero && code <= codeNine:
		return code - codeZero
	case code >= codeUpper && code <= codeUpperZ:
		return 10 + code - codeUpper
	case code >= codeLower && code <= codeLowerZ:
		return 36 + code - codeLower
	}
	return -1
}

func formatCodes(codes []int) string {
	var b strings.Builder
	for _, code := range codes {
		fmt.Fprintf(&b, "%03d", code)
	}
	return b.String()
}
