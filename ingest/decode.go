// Package ingest decodes and validates untrusted inventory submissions
// before they reach the record store.
package ingest

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"pc-inventory/types"
)

// EncodingBase64 is the only recognized value of the
// execution_log_encoding marker.
const EncodingBase64 = "base64"

// DecodeSubmission resolves the optional log envelope in place. A base64
// marker decodes execution_log, repairs undecodable byte sequences with
// U+FFFD and strips NUL characters; no marker passes the log through as
// plain text, still stripping NULs because they are invalid in the text
// storage. The marker field is cleared regardless of outcome. A malformed
// envelope returns a DecodeError and must short-circuit before
// validation.
func DecodeSubmission(sub *types.Submission) error {
	encoding := ""
	if sub.ExecutionLogEncoding != nil {
		encoding = strings.TrimSpace(*sub.ExecutionLogEncoding)
	}
	sub.ExecutionLogEncoding = nil

	if sub.ExecutionLog == nil {
		if encoding != "" && encoding != EncodingBase64 {
			return &types.DecodeError{Field: "execution_log_encoding", Err: fmt.Errorf("unsupported encoding %q", encoding)}
		}
		return nil
	}

	switch encoding {
	case "":
		cleaned := stripNUL(*sub.ExecutionLog)
		sub.ExecutionLog = &cleaned
	case EncodingBase64:
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(*sub.ExecutionLog))
		if err != nil {
			return &types.DecodeError{Field: "execution_log", Err: err}
		}
		text := stripNUL(strings.ToValidUTF8(string(raw), string(utf8.RuneError)))
		sub.ExecutionLog = &text
	default:
		return &types.DecodeError{Field: "execution_log_encoding", Err: fmt.Errorf("unsupported encoding %q", encoding)}
	}
	return nil
}

func stripNUL(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}
