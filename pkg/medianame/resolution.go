package medianame

import (
	"path/filepath"
	"regexp"
	"strings"
)

// resolutionPattern recognizes the fixed resolution vocabulary as a standalone token.
// Longer labels come first so "1080p" never matches as "080p".
var resolutionPattern = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])(4320p|2160p|1440p|1080p|1080i|900p|720p|576p|576i|480p|480i|360p|240p|8k|4k|2k)(?:[^0-9a-z]|$)`)

// ParseResolution returns the first resolution label found in s, or "" when
// none is present. Progressive and interlaced labels are lowercased ("1080p"),
// K labels are uppercased ("4K").
func ParseResolution(s string) string {
	m := resolutionPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	res := strings.ToLower(m[1])
	if strings.HasSuffix(res, "k") {
		return strings.ToUpper(res)
	}
	return res
}

var videoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".m4v":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
	".ts":   true,
	".m2ts": true,
	".flv":  true,
	".mpg":  true,
	".mpeg": true,
	".vob":  true,
	".iso":  true,
	".ogv":  true,
	".3gp":  true,
}

// IsVideoFile reports whether the path has a known video container extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}
