package medianame

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// moviePattern matches "Title (YYYY) [res].ext" where the bracketed resolution is optional.
var moviePattern = regexp.MustCompile(`(?i)^(?P<title>.+?)\s*\((?P<year>\d{4})\)(?:\s*\[(?P<res>[0-9a-z]+)\])?\.\w+$`)

// seasonPattern matches season directories such as "Season 01" or "season 3".
var seasonPattern = regexp.MustCompile(`(?i)^Season\s+(\d+)$`)

// strictEpisodePattern matches "S01E02[ - Title][ [720p]].ext" as the entire name.
var strictEpisodePattern = regexp.MustCompile(`(?i)^S(?P<season>\d{2})E(?P<episode>\d{2})(?:\s+-\s+(?P<title>.+?))?(?:\s*\[(?P<res>[^\]]+)\])?\.\w+$`)

// lenientEpisodePattern finds an SxEy token anywhere in the name.
var lenientEpisodePattern = regexp.MustCompile(`(?i)S(?P<season>\d+)E(?P<episode>\d+)`)

// episodeMatcher is one named episode naming convention.
type episodeMatcher struct {
	name  string
	match func(name string) (Episode, bool)
}

var (
	strictMatcher  = episodeMatcher{name: "strict", match: matchStrictEpisode}
	lenientMatcher = episodeMatcher{name: "lenient", match: matchLenientEpisode}
)

// episodeMatchers lists the matchers tried for each mode, in order.
var episodeMatchers = map[Mode][]episodeMatcher{
	ModeStrict:  {strictMatcher},
	ModeLenient: {strictMatcher, lenientMatcher},
}

// ParseMovie extracts title, year, and optional resolution from a movie filename.
// Directory components are ignored. Returns false for names that do not follow
// the "Title (YYYY) [res].ext" convention in full.
func ParseMovie(name string) (Movie, bool) {
	m := moviePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return Movie{}, false
	}

	title := strings.TrimSpace(m[moviePattern.SubexpIndex("title")])
	if title == "" {
		return Movie{}, false
	}
	year, err := strconv.Atoi(m[moviePattern.SubexpIndex("year")])
	if err != nil {
		return Movie{}, false
	}

	return Movie{
		Title:      title,
		Year:       year,
		Resolution: m[moviePattern.SubexpIndex("res")],
	}, true
}

// ParseSeasonDir extracts the season number from a "Season N" directory name.
func ParseSeasonDir(name string) (int, bool) {
	m := seasonPattern.FindStringSubmatch(strings.TrimSpace(filepath.Base(name)))
	if m == nil {
		return 0, false
	}
	season, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return season, true
}

// ParseEpisode extracts season, episode, and optional resolution from an
// episode filename using the matchers configured for mode. Unknown modes
// fall back to lenient matching.
func ParseEpisode(name string, mode Mode) (Episode, bool) {
	base := filepath.Base(name)

	matchers, ok := episodeMatchers[mode]
	if !ok {
		matchers = episodeMatchers[ModeLenient]
	}

	for _, m := range matchers {
		if ep, ok := m.match(base); ok {
			ep.Matcher = m.name
			return ep, true
		}
	}
	return Episode{}, false
}

func matchStrictEpisode(name string) (Episode, bool) {
	m := strictEpisodePattern.FindStringSubmatch(name)
	if m == nil {
		return Episode{}, false
	}

	season, err := strconv.Atoi(m[strictEpisodePattern.SubexpIndex("season")])
	if err != nil {
		return Episode{}, false
	}
	episode, err := strconv.Atoi(m[strictEpisodePattern.SubexpIndex("episode")])
	if err != nil {
		return Episode{}, false
	}

	return Episode{
		Season:     season,
		Episode:    episode,
		Title:      strings.TrimSpace(m[strictEpisodePattern.SubexpIndex("title")]),
		Resolution: ParseResolution(m[strictEpisodePattern.SubexpIndex("res")]),
	}, true
}

func matchLenientEpisode(name string) (Episode, bool) {
	m := lenientEpisodePattern.FindStringSubmatch(name)
	if m == nil {
		return Episode{}, false
	}

	season, err := strconv.Atoi(m[lenientEpisodePattern.SubexpIndex("season")])
	if err != nil {
		return Episode{}, false
	}
	episode, err := strconv.Atoi(m[lenientEpisodePattern.SubexpIndex("episode")])
	if err != nil {
		return Episode{}, false
	}

	return Episode{
		Season:     season,
		Episode:    episode,
		Resolution: ParseResolution(name),
	}, true
}
