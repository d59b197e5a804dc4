package core

import "fmt"

// BuildRangeHeader constructs an HTTP Range header value for resumable
// downloads, requesting all bytes from the given offset onward.
//
// Examples:
//   - BuildRangeHeader(0) returns "bytes=0-"
//   - BuildRangeHeader(1024) returns "bytes=1024-"
//
// Negative offsets are treated as 0.
func BuildRangeHeader(resumeFrom int64) string {
	if resumeFrom < 0 {
		resumeFrom = 0
	}
	return fmt.Sprintf("bytes=%d-", resumeFrom)
}

// ParseContentRange parses a Content-Range response header to extract byte
// range information. Servers respond with Content-Range when honoring a
// Range request.
//
// Expected format: "bytes start-end/total" or "bytes start-end/*".
// total is -1 when the server reports an unknown size ("*").
func ParseContentRange(header string) (start, end, total int64, err error) {
	if header == "" {
		return 0, 0, 0, fmt.Errorf("empty Content-Range header")
	}

	var totalStr string
	n, scanErr := fmt.Sscanf(header, "bytes %d-%d/%s", &start, &end, &totalStr)
	if scanErr != nil || n < 3 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %q", header)
	}

	if totalStr == "*" {
		total = -1
	} else {
		if _, parseErr := fmt.Sscanf(totalStr, "%d", &total); parseErr != nil {
			return 0, 0, 0, fmt.Errorf("invalid total in Content-Range: %q", totalStr)
		}
	}

	return start, end, total, nil
}
