package core

import "fmt"

// BuildRangeHeader returns an HTTP Range header value requesting everything
// from resumeFrom onwards, e.g. "bytes=1024-".
//
// This is a pure function with no side effects.
func BuildRangeHeader(resumeFrom int64) string {
	if resumeFrom < 0 {
		resumeFrom = 0
	}
	return fmt.Sprintf("bytes=%d-", resumeFrom)
}

// ParseContentRange parses a "bytes start-end/total" Content-Range header.
// A total of "*" is reported as -1.
//
// This is a pure function with no side effects.
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
		return start, end, -1, nil
	}
	if _, err := fmt.Sscanf(totalStr, "%d", &total); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid total in Content-Range: %q", totalStr)
	}
	return start, end, total, nil
}
